package validator

// Rule is a single predicate and the message reported when it fails.
type Rule[T any] struct {
	Check   func(T) bool
	Message string
}

// Field groups the ordered rules governing one input key and the transform
// applied to the raw value once all of them pass.
type Field[In, Out any] struct {
	Key       string
	Rules     []Rule[In]
	Normalize func(In) Out
}

// Validate runs the rules in order. The first failing rule's message is
// recorded under f.Key and the remaining rules are skipped. Normalize is only
// called when every rule passed.
func (f Field[In, Out]) Validate(v *Validator, raw In) (Out, bool) {
	var zero Out

	for _, rule := range f.Rules {
		if !rule.Check(raw) {
			v.AddError(f.Key, rule.Message)
			return zero, false
		}
	}

	if f.Normalize == nil {
		return zero, true
	}
	return f.Normalize(raw), true
}
