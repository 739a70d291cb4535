package order

import "testing"

func TestApply_Place(t *testing.T) {
	tests := []struct {
		name    string
		cur     State
		want    State
		outcome Outcome
	}{
		{
			name:    "place from absent",
			cur:     State{Kind: StateAbsent},
			want:    State{Kind: StateActive, Quantity: 1},
			outcome: OutcomeOK,
		},
		{
			name:    "place after cancel is a fresh order",
			cur:     State{Kind: StateCancelled},
			want:    State{Kind: StateActive, Quantity: 1},
			outcome: OutcomeOK,
		},
		{
			name:    "place over active is informational",
			cur:     State{Kind: StateActive, Quantity: 2},
			want:    State{Kind: StateActive, Quantity: 2},
			outcome: OutcomeAlreadyOrdered,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Apply(tt.cur, EventPlace)
			if d.Next != tt.want {
				t.Fatalf("next = %+v, want %+v", d.Next, tt.want)
			}
			if d.Outcome != tt.outcome {
				t.Fatalf("outcome = %v, want %v", d.Outcome, tt.outcome)
			}
		})
	}
}

func TestApply_QuantityBounds(t *testing.T) {
	// После любой последовательности inc/dec активный заказ
	// остаётся в диапазоне 1..3 либо отменяется.
	st := State{Kind: StateActive, Quantity: 1}
	events := []Event{
		EventIncrement, EventIncrement, EventIncrement, EventIncrement,
		EventDecrement, EventDecrement, EventIncrement, EventDecrement,
	}

	for i, ev := range events {
		d := Apply(st, ev)
		if d.Next.Kind == StateActive {
			if d.Next.Quantity < 1 || d.Next.Quantity > 3 {
				t.Fatalf("step %d: quantity %d out of bounds", i, d.Next.Quantity)
			}
		}
		st = d.Next
	}
}

func TestApply_IncrementAtLimit(t *testing.T) {
	cur := State{Kind: StateActive, Quantity: 3}
	d := Apply(cur, EventIncrement)
	if d.Outcome != OutcomeLimitReached {
		t.Fatalf("outcome = %v, want OutcomeLimitReached", d.Outcome)
	}
	if d.Next != cur {
		t.Fatalf("state changed on refused increment: %+v", d.Next)
	}
}

func TestApply_DecrementAutoCancel(t *testing.T) {
	d := Apply(State{Kind: StateActive, Quantity: 1}, EventDecrement)
	if d.Outcome != OutcomeAutoCancelled {
		t.Fatalf("outcome = %v, want OutcomeAutoCancelled", d.Outcome)
	}
	if d.Next.Kind != StateCancelled {
		t.Fatalf("next kind = %v, want StateCancelled", d.Next.Kind)
	}

	// Повторный декремент по тому же ключу — «заказ не найден».
	d = Apply(d.Next, EventDecrement)
	if d.Outcome != OutcomeNotFound {
		t.Fatalf("outcome = %v, want OutcomeNotFound", d.Outcome)
	}
}

func TestApply_CancelIdempotent(t *testing.T) {
	for _, cur := range []State{
		{Kind: StateCancelled},
		{Kind: StateAbsent},
	} {
		first := Apply(cur, EventCancel)
		second := Apply(first.Next, EventCancel)

		if first.Outcome != OutcomeNotFound || second.Outcome != OutcomeNotFound {
			t.Fatalf("cancel of %+v: outcomes %v, %v, want OutcomeNotFound twice",
				cur, first.Outcome, second.Outcome)
		}
		if first.Next != cur || second.Next != cur {
			t.Fatalf("cancel of %+v mutated state", cur)
		}
	}
}

func TestApply_ExplicitCancel(t *testing.T) {
	d := Apply(State{Kind: StateActive, Quantity: 2}, EventCancel)
	if d.Outcome != OutcomeCancelled {
		t.Fatalf("outcome = %v, want OutcomeCancelled", d.Outcome)
	}
	if d.Next.Kind != StateCancelled {
		t.Fatalf("next kind = %v, want StateCancelled", d.Next.Kind)
	}
}
