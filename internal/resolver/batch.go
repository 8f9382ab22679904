package resolver

import "context"

// Batch answers every question with its most likely option without
// confirmation, preserving non-interactive runs. Callers persist batch
// answers with an inferred confidence tag so they surface for review.
type Batch struct{}

// Resolve returns the question's default (or first option), unconfirmed.
func (Batch) Resolve(ctx context.Context, q Question) (Answer, error) {
	if err := ctx.Err(); err != nil {
		return Answer{}, err
	}
	return Answer{Value: q.fallback(), Confirmed: false}, nil
}

// Scripted replays canned answers in order; it exists for tests and for
// rehearsing a morning run. Exhausted answers fall back to Batch behavior.
type Scripted struct {
	Answers []Answer
	next    int
}

// Resolve pops the next scripted answer.
func (s *Scripted) Resolve(ctx context.Context, q Question) (Answer, error) {
	if s.next < len(s.Answers) {
		answer := s.Answers[s.next]
		s.next++
		return answer, nil
	}
	return Batch{}.Resolve(ctx, q)
}

// Asked reports how many scripted answers were consumed.
func (s *Scripted) Asked() int { return s.next }
