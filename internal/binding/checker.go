package binding

// A Checker validates a bound component before its injections are resolved.
type Checker func(s *Session, bc *BoundComponent) error

var checkers = []Checker{
	ProvidesParentChecker,
}

func (s *Session) check(bc *BoundComponent) error {
	for _, checker := range checkers {
		if err := checker(s, bc); err != nil {
			return err
		}
	}
	return nil
}

// ProvidesParentChecker verifies that every parent type a provides method is
// exposed as is actually a parent of the type it returns.
//
// Only the component's own provides methods are checked, inherited methods are
// checked on the component declaring them.
func ProvidesParentChecker(s *Session, bc *BoundComponent) error {
	for _, p := range bc.source.Provides {
		for _, as := range p.As {
			if s.assignable(p.Returns, as) {
				continue
			}
			return &ComponentValidationError{
				Component: bc.Name,
				Provider:  p.Function,
				Parent:    as.Class,
				Reason:    p.Returns.String() + " does not inherit",
			}
		}
	}
	return nil
}
