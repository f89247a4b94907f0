// eval.go — two-phase tree-walking evaluator for Packard tag trees.
//
// EXECUTION MODEL
// ---------------
// Evaluation happens in two passes over the immutable tag tree:
//
//  1. Validate: every composite's operation name is extracted (by
//     recursing through nested left sides until a primitive is
//     reached) and resolved against the fixed operation set. The
//     resolved kind is memoized per node, so execution never looks up
//     strings. The first unknown name aborts before anything runs —
//     a tree that fails validation leaves the global store untouched.
//  2. Execute: the tree is walked again, this time with side effects.
//     Execution is eager and sequential; an error mid-run leaves the
//     effects of earlier tags applied.
//
// SCOPING
// -------
// Frames are scope records with separate variable and attribute maps.
// They form a stack that is never empty (a root frame always exists);
// only `define` pushes, and only the `define` that pushed a frame pops
// it — scope lifetime is the dynamic extent of the define body.
// `attribute` declares a name in the innermost frame unless it is
// already visible as an attribute of any active frame, and always
// yields a Reference. Assignment resolves a Reference by searching
// frames innermost to outermost and overwriting the name in the first
// frame that holds it among attributes or variables.
//
// The global store is separate from all frames: `character` is the
// only writer, and the store survives the run as its observable
// output.
package packard

import "fmt"

// OpKind enumerates the operations a composite tag can name. Kinds
// are decided once, during validation.
type OpKind int

const (
	OpRoot OpKind = iota
	OpList
	OpItem
	OpText
	OpNumber
	OpFlag
	OpCharacter
	OpAttribute
	OpDefine
	OpSet
)

var opKinds = map[string]OpKind{
	"root":      OpRoot,
	"list":      OpList,
	"item":      OpItem,
	"text":      OpText,
	"number":    OpNumber,
	"flag":      OpFlag,
	"character": OpCharacter,
	"attribute": OpAttribute,
	"define":    OpDefine,
	"set":       OpSet,
}

var opNames = map[OpKind]string{
	OpRoot: "root", OpList: "list", OpItem: "item", OpText: "text",
	OpNumber: "number", OpFlag: "flag", OpCharacter: "character",
	OpAttribute: "attribute", OpDefine: "define", OpSet: "set",
}

// opHandler runs an ordinary operation against its already-evaluated
// right-hand value. define and set are structural and have no entry
// here.
type opHandler func(ev *Evaluator, arg Value) (Value, error)

var opHandlers = map[OpKind]opHandler{
	OpRoot:      handlePassthrough,
	OpList:      handlePassthrough,
	OpText:      handlePassthrough,
	OpNumber:    handlePassthrough,
	OpFlag:      handlePassthrough,
	OpItem:      handleItem,
	OpCharacter: handleCharacter,
	OpAttribute: handleAttribute,
}

// ValidationError reports a tree rejected before execution.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return "validation error: " + e.Msg }

// EvalError reports a failure during the execution phase.
type EvalError struct {
	Op  string // operation being executed, "" when structural
	Msg string
}

func (e *EvalError) Error() string {
	if e.Op != "" {
		return fmt.Sprintf("evaluation error in '%s': %s", e.Op, e.Msg)
	}
	return "evaluation error: " + e.Msg
}

// frame is one lexical scope record. Variables and attributes are
// declared by different operations and searched separately when an
// assignment target is resolved, but both make a name assignable.
type frame struct {
	variables  map[string]Value
	attributes map[string]Value
}

func newFrame() *frame {
	return &frame{
		variables:  map[string]Value{},
		attributes: map[string]Value{},
	}
}

// Evaluator walks one tag tree. It owns the frame stack, the global
// store and the trace counter. A single evaluator drives a single
// evaluation at a time; there is no internal locking.
type Evaluator struct {
	store   map[string]Value
	frames  []*frame
	tracer  Tracer
	counter uint64
	ops     map[*TagNode]OpKind
}

// NewEvaluator creates an evaluator with a silent tracer.
func NewEvaluator() *Evaluator {
	return NewEvaluatorWithTracer(NopTracer{})
}

// NewEvaluatorWithTracer creates an evaluator whose steps are reported
// to tr. The tracer is observational only: it cannot change results,
// and its write failures never abort evaluation.
func NewEvaluatorWithTracer(tr Tracer) *Evaluator {
	return &Evaluator{
		store:  map[string]Value{},
		frames: []*frame{newFrame()},
		tracer: tr,
	}
}

// Store returns the global entity store, the run's observable output.
// Only the character operation writes to it.
func (ev *Evaluator) Store() map[string]Value { return ev.store }

// EvalProgram validates the tree, then executes it. Repeated calls
// share the store and the root frame (the REPL relies on this); the
// frame stack is trimmed back to the root frame first in case a prior
// run failed inside a define block.
func (ev *Evaluator) EvalProgram(root *TagNode) (Value, error) {
	ev.frames = ev.frames[:1]
	ev.ops = make(map[*TagNode]OpKind)
	if err := ev.validate(root); err != nil {
		return Value{}, err
	}

	ev.tracef("=== Evaluation Trace ===")
	ev.tracef("")
	v, err := ev.eval(root)
	if err != nil {
		ev.tracef("")
		ev.tracef("=== Evaluation Failed: %s ===", err)
		return Value{}, err
	}
	ev.tracef("")
	ev.tracef("=== Evaluation Complete ===")
	return v, nil
}

// ----- validation ------------------------------------------------------------

// opNameOf bottoms out a left side at its naming primitive. The
// primitive's text form is the operation name; numbers have none.
func opNameOf(n *TagNode) (string, error) {
	if n.IsPrimitive() {
		if name, ok := n.Prim.TextForm(); ok {
			return name, nil
		}
		return "", &ValidationError{Msg: "a number cannot name an operation"}
	}
	return opNameOf(n.Left)
}

func (ev *Evaluator) validate(n *TagNode) error {
	if n.IsPrimitive() {
		return nil
	}
	name, err := opNameOf(n.Left)
	if err != nil {
		return err
	}
	kind, ok := opKinds[name]
	if !ok {
		return &ValidationError{Msg: fmt.Sprintf("unknown operation %q", name)}
	}
	ev.ops[n] = kind
	if err := ev.validate(n.Left); err != nil {
		return err
	}
	return ev.validate(n.Right)
}

// ----- frames ----------------------------------------------------------------

func (ev *Evaluator) currentFrame() *frame { return ev.frames[len(ev.frames)-1] }

func (ev *Evaluator) pushFrame() { ev.frames = append(ev.frames, newFrame()) }

func (ev *Evaluator) popFrame() { ev.frames = ev.frames[:len(ev.frames)-1] }

// attributeVisible reports whether name is declared as an attribute in
// any active frame.
func (ev *Evaluator) attributeVisible(name string) bool {
	for _, fr := range ev.frames {
		if _, ok := fr.attributes[name]; ok {
			return true
		}
	}
	return false
}

// assign overwrites name in the innermost frame that holds it,
// checking attributes before variables within each frame. It reports
// whether any frame held the name.
func (ev *Evaluator) assign(name string, v Value) bool {
	for i := len(ev.frames) - 1; i >= 0; i-- {
		fr := ev.frames[i]
		if _, ok := fr.attributes[name]; ok {
			fr.attributes[name] = v
			return true
		}
		if _, ok := fr.variables[name]; ok {
			fr.variables[name] = v
			return true
		}
	}
	return false
}

// ----- execution -------------------------------------------------------------

func (ev *Evaluator) eval(n *TagNode) (Value, error) {
	ev.counter++
	id := ev.counter

	if n.IsPrimitive() {
		v := n.Prim.Value()
		ev.tracef("[Eval %d] Primitive: %s => %s", id, n.Prim.DisplayString(), v)
		return v, nil
	}

	if n.Left.IsPrimitive() {
		kind := ev.ops[n]
		switch kind {
		case OpDefine:
			// The left side is consumed purely to name the operation;
			// the body runs in a fresh frame popped on the way out.
			ev.tracef("[Eval %d] define: entering frame (depth %d)", id, len(ev.frames)+1)
			ev.pushFrame()
			v, err := ev.eval(n.Right)
			ev.popFrame()
			if err != nil {
				return Value{}, err
			}
			ev.tracef("[Eval %d] define: leaving frame, result: %s", id, v)
			return v, nil

		case OpSet:
			// A bare [set: x] passes a reference through; the actual
			// assignment happens where that reference meets a value.
			v, err := ev.eval(n.Right)
			if err != nil {
				return Value{}, err
			}
			if v.Tag != VTRef {
				return Value{}, &EvalError{Op: "set", Msg: fmt.Sprintf("set expects a reference, got %s", v)}
			}
			ev.tracef("[Eval %d] set: passing through %s", id, v)
			return v, nil

		default:
			rv, err := ev.eval(n.Right)
			if err != nil {
				return Value{}, err
			}
			ev.tracef("[Eval %d] Dispatching handler for operation: %s", id, opNames[kind])
			res, err := opHandlers[kind](ev, rv)
			if err != nil {
				return Value{}, err
			}
			ev.tracef("[Eval %d] Handler result: %s", id, res)
			return res, nil
		}
	}

	// Composite left side.
	if setTarget := setFormTarget(n.Left); setTarget != nil {
		// [[set: target]: value] — assignment through the frame stack.
		tv, err := ev.eval(setTarget)
		if err != nil {
			return Value{}, err
		}
		if tv.Tag != VTRef {
			return Value{}, &EvalError{Op: "set", Msg: fmt.Sprintf("set expects a reference, got %s", tv)}
		}
		rv, err := ev.eval(n.Right)
		if err != nil {
			return Value{}, err
		}
		name := tv.Data.(string)
		if !ev.assign(name, rv) {
			return Value{}, &EvalError{Op: "set", Msg: fmt.Sprintf("cannot assign to undefined attribute/variable %q", name)}
		}
		ev.tracef("[Eval %d] Assigned &%s = %s", id, name, rv)
		return rv, nil
	}

	// General nested left side: evaluate both sides in order. A left
	// side that yields a reference makes the node an assignment; any
	// other left value is kept only for its effects and the right
	// value carries. This rule is what sequences the parser's
	// right-nested top-level chains.
	ev.tracef("[Eval %d] Composite tag: evaluating ltag", id)
	lv, err := ev.eval(n.Left)
	if err != nil {
		return Value{}, err
	}
	ev.tracef("[Eval %d]   ltag evaluated to: %s", id, lv)
	ev.tracef("[Eval %d] Composite tag: evaluating rtag", id)
	rv, err := ev.eval(n.Right)
	if err != nil {
		return Value{}, err
	}
	ev.tracef("[Eval %d]   rtag evaluated to: %s", id, rv)

	if lv.Tag == VTRef {
		name := lv.Data.(string)
		if !ev.assign(name, rv) {
			return Value{}, &EvalError{Op: "", Msg: fmt.Sprintf("cannot assign to undefined attribute/variable %q", name)}
		}
		ev.tracef("[Eval %d] Assigned &%s = %s", id, name, rv)
	}
	return rv, nil
}

// setFormTarget recognizes a left side of the shape [set: target] and
// returns the target node, or nil.
func setFormTarget(n *TagNode) *TagNode {
	if n.IsPrimitive() || !n.Left.IsPrimitive() {
		return nil
	}
	if name, ok := n.Left.Prim.TextForm(); ok && name == "set" {
		return n.Right
	}
	return nil
}

// ----- handlers --------------------------------------------------------------

func handlePassthrough(_ *Evaluator, arg Value) (Value, error) { return arg, nil }

func handleItem(_ *Evaluator, _ Value) (Value, error) { return Item, nil }

func handleCharacter(ev *Evaluator, arg Value) (Value, error) {
	if arg.Tag != VTText {
		return Value{}, &EvalError{Op: "character", Msg: "character name must be text"}
	}
	name := arg.Data.(string)
	ev.store[name] = Item
	return Text("character:" + name), nil
}

func handleAttribute(ev *Evaluator, arg Value) (Value, error) {
	if arg.Tag != VTText {
		return Value{}, &EvalError{Op: "attribute", Msg: "attribute name must be text"}
	}
	name := arg.Data.(string)
	// Declare-once-anywhere-visible: a name already reachable as an
	// attribute of an enclosing frame is not shadowed.
	if !ev.attributeVisible(name) {
		ev.currentFrame().attributes[name] = Item
	}
	return Ref(name), nil
}

func (ev *Evaluator) tracef(format string, args ...interface{}) {
	ev.tracer.Event(fmt.Sprintf(format, args...))
}
