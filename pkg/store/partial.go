package store

// Partial is the argument to SetState. The concrete forms are Fields, Value,
// Func, Mutate and Action.
type Partial[S any] interface {
	// apply returns the next state given the current one.
	apply(current S, replace bool) S
}

// Fields is a literal partial naming the top-level keys to write.
//
// For struct states keys are exported field names, or the name given by a
// field's json tag. For map states keys are converted to the map's key type.
// Values must be assignable to the target field or map element; nil writes
// the zero value.
type Fields[S any] map[string]any

func (f Fields[S]) apply(current S, replace bool) S {
	if replace {
		return mergeFields(zeroLike(current), f)
	}
	return mergeFields(shallowCopy(current), f)
}

// Value is a literal partial carrying a whole state.
// Merged, every key of State overwrites the current state's key; replacing,
// State becomes the new state as is.
type Value[S any] struct {
	State S
}

func (v Value[S]) apply(current S, replace bool) S {
	if replace {
		return v.State
	}
	return mergeWhole(current, v.State)
}

// Func computes a partial from the current state.
// The returned partial is applied with the same replace flag; a nil result
// merges nothing.
type Func[S any] func(state S) Partial[S]

func (fn Func[S]) apply(current S, replace bool) S {
	next := fn(current)
	if next == nil {
		return resolveNil(current, replace)
	}
	return next.apply(current, replace)
}

// Mutate edits a shallow copy of the current state in place.
//
// Without the Draft middleware only the top level is copied: nested slices,
// maps and pointers are shared with the current state, so writing through
// them is visible in the previous state too. Under Draft the mutator
// receives a safe clone instead.
type Mutate[S any] func(state *S)

func (fn Mutate[S]) apply(current S, _ bool) S {
	next := shallowCopy(current)
	fn(&next)
	return next
}

// Action labels a partial with a name for middleware such as devtools and
// logging. It applies exactly like the wrapped partial.
type Action[S any] struct {
	Name    string
	Partial Partial[S]
}

func (a Action[S]) apply(current S, replace bool) S {
	if a.Partial == nil {
		return resolveNil(current, replace)
	}
	return a.Partial.apply(current, replace)
}

// Named wraps partial in an Action called name.
func Named[S any](name string, partial Partial[S]) Action[S] {
	return Action[S]{Name: name, Partial: partial}
}

// ActionName returns the action name attached to partial, or "" when the
// partial is not an Action.
func ActionName[S any](partial Partial[S]) string {
	if a, ok := partial.(Action[S]); ok {
		return a.Name
	}
	return ""
}

// PartialKind returns a short, low-cardinality name for the partial's form.
// It is used as a metrics and tracing label.
func PartialKind[S any](partial Partial[S]) string {
	switch p := partial.(type) {
	case nil:
		return "nil"
	case Fields[S]:
		return "fields"
	case Value[S]:
		return "value"
	case Func[S]:
		return "func"
	case Mutate[S]:
		return "mutate"
	case Action[S]:
		return PartialKind(p.Partial)
	case drafted[S]:
		return p.kind
	default:
		return "unknown"
	}
}

// resolveNil handles a nil effective partial: merging nothing yields a shallow
// copy, replacing with nothing yields the zero state.
func resolveNil[S any](current S, replace bool) S {
	if replace {
		var zero S
		return zero
	}
	return shallowCopy(current)
}
