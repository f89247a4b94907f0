// eval_test.go
package packard

import (
	"strings"
	"testing"
)

func evalSrc(t *testing.T, ev *Evaluator, src string) Value {
	t.Helper()
	root := parseSrc(t, src)
	v, err := ev.EvalProgram(root)
	if err != nil {
		t.Fatalf("EvalProgram(%q) error: %v", src, err)
	}
	return v
}

func evalErr(t *testing.T, ev *Evaluator, src string) error {
	t.Helper()
	root := parseSrc(t, src)
	_, err := ev.EvalProgram(root)
	if err == nil {
		t.Fatalf("EvalProgram(%q): expected error, got none", src)
	}
	return err
}

func wantNumber(t *testing.T, v Value, want float64) {
	t.Helper()
	if v.Tag != VTNumber || v.Data.(float64) != want {
		t.Fatalf("want Number(%v), got %s", want, v)
	}
}

func wantText(t *testing.T, v Value, want string) {
	t.Helper()
	if v.Tag != VTText || v.Data.(string) != want {
		t.Fatalf("want Text(%q), got %s", want, v)
	}
}

func Test_Eval_Primitives_Literals(t *testing.T) {
	ev := NewEvaluator()
	wantNumber(t, evalSrc(t, ev, "[number: 42]"), 42)
	wantText(t, evalSrc(t, ev, `[text: "hello"]`), "hello")
	wantText(t, evalSrc(t, ev, "[text: hello]"), "hello")

	if v := evalSrc(t, ev, "[flag: on]"); v.Tag != VTFlag || v.Data.(bool) != true {
		t.Fatalf("want on, got %s", v)
	}
	if v := evalSrc(t, ev, "[flag: off]"); v.Tag != VTFlag || v.Data.(bool) != false {
		t.Fatalf("want off, got %s", v)
	}
}

func Test_Eval_Primitives_NonBooleanKeywordIsText(t *testing.T) {
	ev := NewEvaluator()
	wantText(t, evalSrc(t, ev, "[text: and]"), "and")
}

func Test_Eval_EmptyProgram_YieldsItem(t *testing.T) {
	ev := NewEvaluator()
	if v := evalSrc(t, ev, ""); v.Tag != VTItem {
		t.Fatalf("want item, got %s", v)
	}
}

func Test_Eval_Character_WritesStore(t *testing.T) {
	ev := NewEvaluator()
	v := evalSrc(t, ev, `[character: [text: "Alice"]]`)
	wantText(t, v, "character:Alice")

	stored, ok := ev.Store()["Alice"]
	if !ok {
		t.Fatalf("store missing Alice: %v", ev.Store())
	}
	if stored.Tag != VTItem {
		t.Fatalf("want item in store, got %s", stored)
	}
}

func Test_Eval_Character_NameMustBeText(t *testing.T) {
	ev := NewEvaluator()
	err := evalErr(t, ev, "[character: [number: 7]]")
	ee, ok := err.(*EvalError)
	if !ok || ee.Op != "character" {
		t.Fatalf("want character EvalError, got %T: %v", err, err)
	}
}

func Test_Eval_Sequence_LastValueCarries(t *testing.T) {
	ev := NewEvaluator()
	v := evalSrc(t, ev, `
[character: [text: "Alice"]]
[character: [text: "Bob"]]
`)
	wantText(t, v, "character:Bob")
	if len(ev.Store()) != 2 {
		t.Fatalf("want 2 characters, got %v", ev.Store())
	}
}

func Test_Eval_Validation_UnknownOperation(t *testing.T) {
	ev := NewEvaluator()
	err := evalErr(t, ev, "[bogus: item]")
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("want *ValidationError, got %T: %v", err, err)
	}
	if !strings.Contains(err.Error(), `unknown operation "bogus"`) {
		t.Fatalf("unexpected message: %v", err)
	}
}

func Test_Eval_Validation_RejectsBeforeSideEffects(t *testing.T) {
	// The character tag comes first, but validation fails the whole
	// tree before anything runs.
	ev := NewEvaluator()
	evalErr(t, ev, `
[character: [text: "Alice"]]
[bogus: item]
`)
	if len(ev.Store()) != 0 {
		t.Fatalf("store must stay empty on validation failure, got %v", ev.Store())
	}
}

func Test_Eval_Validation_NumberCannotNameOperation(t *testing.T) {
	ev := NewEvaluator()
	err := evalErr(t, ev, "[1: 2]")
	if _, ok := err.(*ValidationError); !ok {
		t.Fatalf("want *ValidationError, got %T: %v", err, err)
	}
}

func Test_Eval_ExecError_KeepsEarlierEffects(t *testing.T) {
	ev := NewEvaluator()
	err := evalErr(t, ev, `
[character: [text: "Alice"]]
[set: [number: 1]]
`)
	if _, ok := err.(*EvalError); !ok {
		t.Fatalf("want *EvalError, got %T: %v", err, err)
	}
	if _, ok := ev.Store()["Alice"]; !ok {
		t.Fatalf("effects before the failure must persist, got %v", ev.Store())
	}
}

func Test_Eval_Attribute_DeclareAndAssign(t *testing.T) {
	ev := NewEvaluator()
	v := evalSrc(t, ev, `[[attribute: [text: "score"]]: [number: 5]]`)
	wantNumber(t, v, 5)
	wantNumber(t, ev.frames[0].attributes["score"], 5)
}

func Test_Eval_Set_UpdatesExistingAttribute(t *testing.T) {
	ev := NewEvaluator()
	v := evalSrc(t, ev, `
[[attribute: [text: "score"]]: [number: 5]]
[[set: [attribute: [text: "score"]]]: [number: 9]]
`)
	wantNumber(t, v, 9)
	wantNumber(t, ev.frames[0].attributes["score"], 9)
}

func Test_Eval_Set_BareFormPassesReferenceThrough(t *testing.T) {
	ev := NewEvaluator()
	v := evalSrc(t, ev, `[set: [attribute: [text: "hp"]]]`)
	if v.Tag != VTRef || v.Data.(string) != "hp" {
		t.Fatalf("want &hp, got %s", v)
	}
}

func Test_Eval_Set_RequiresReference(t *testing.T) {
	ev := NewEvaluator()
	err := evalErr(t, ev, "[set: [number: 1]]")
	ee, ok := err.(*EvalError)
	if !ok || ee.Op != "set" {
		t.Fatalf("want set EvalError, got %T: %v", err, err)
	}
	if !strings.Contains(ee.Msg, "expects a reference") {
		t.Fatalf("unexpected message: %v", ee)
	}
}

func Test_Eval_Set_UndefinedTargetFails(t *testing.T) {
	// The attribute is declared inside a define frame that pops before
	// the assignment resolves, so no active frame holds the name.
	ev := NewEvaluator()
	err := evalErr(t, ev, `[[set: [define: [attribute: [text: "hp"]]]]: [number: 3]]`)
	ee, ok := err.(*EvalError)
	if !ok {
		t.Fatalf("want *EvalError, got %T: %v", err, err)
	}
	if !strings.Contains(ee.Msg, `undefined attribute/variable "hp"`) {
		t.Fatalf("unexpected message: %v", ee)
	}
}

func Test_Eval_Define_ScopesAttributeToFrame(t *testing.T) {
	ev := NewEvaluator()
	v := evalSrc(t, ev, `[define: [[attribute: [text: "tmp"]]: [number: 1]]]`)
	wantNumber(t, v, 1)
	if _, ok := ev.frames[0].attributes["tmp"]; ok {
		t.Fatalf("tmp must not leak into the root frame")
	}
	if len(ev.frames) != 1 {
		t.Fatalf("frame stack must be back at the root, depth %d", len(ev.frames))
	}
}

func Test_Eval_Attribute_DeclareOnceAcrossFrames(t *testing.T) {
	// hp is declared at the root; the attribute inside the define sees
	// it and yields a reference to the existing slot instead of
	// shadowing it.
	ev := NewEvaluator()
	v := evalSrc(t, ev, `
[[attribute: [text: "hp"]]: [number: 10]]
[define: [[attribute: [text: "hp"]]: [number: 3]]]
`)
	wantNumber(t, v, 3)
	wantNumber(t, ev.frames[0].attributes["hp"], 3)
}

func Test_Eval_Define_PopsFrameOnError(t *testing.T) {
	ev := NewEvaluator()
	evalErr(t, ev, "[define: [set: [number: 1]]]")
	if len(ev.frames) != 1 {
		t.Fatalf("failed define must still pop its frame, depth %d", len(ev.frames))
	}
}

func Test_Eval_Reuse_StoreAndRootFramePersist(t *testing.T) {
	ev := NewEvaluator()
	evalSrc(t, ev, `[character: [text: "Alice"]]`)
	evalSrc(t, ev, `[[attribute: [text: "score"]]: [number: 5]]`)

	v := evalSrc(t, ev, `[[set: [attribute: [text: "score"]]]: [number: 6]]`)
	wantNumber(t, v, 6)
	if _, ok := ev.Store()["Alice"]; !ok {
		t.Fatalf("store must survive across programs, got %v", ev.Store())
	}
}

func Test_Eval_Item_IgnoresArgument(t *testing.T) {
	ev := NewEvaluator()
	if v := evalSrc(t, ev, "[item: [number: 99]]"); v.Tag != VTItem {
		t.Fatalf("want item, got %s", v)
	}
}
