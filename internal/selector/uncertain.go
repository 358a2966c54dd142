package selector

// Verdict decorates a Subject with the three-valued outcome of a filter
// pass over it: Doubt=false means the rule positively matched (Certain);
// Doubt=true means the rule's required attribute was absent and the
// subject is neither included nor excluded (Uncertain). Verdict only ever
// appears inside filter; match returns a plain bool.
type Verdict struct {
	Subject *Subject
	Doubt   bool
}

// Certain wraps s as a positively-matched verdict.
func Certain(s *Subject) Verdict { return Verdict{Subject: s, Doubt: false} }

// Uncertain wraps s as a doubtful verdict: the rule could not conclude
// because the attribute it needed was absent on s.
func Uncertain(s *Subject) Verdict { return Verdict{Subject: s, Doubt: true} }

// certainSubjects extracts the subjects of every verdict with Doubt=false.
func certainSubjects(verdicts []Verdict) []*Subject {
	out := make([]*Subject, 0, len(verdicts))
	for _, v := range verdicts {
		if !v.Doubt {
			out = append(out, v.Subject)
		}
	}
	return out
}
