package codegen

import (
	"strings"
	"testing"
)

func render(t *testing.T, descs ...*PropertyDescriptor) string {
	t.Helper()

	f := MakeFile("example.com/game", "game")
	var accs []*Accessors
	for _, d := range descs {
		acc, genErr := Generate(d, Config{})
		if genErr != nil {
			t.Fatalf("Generate(%+v) error: %v", d, genErr)
		}
		accs = append(accs, acc)
	}
	AddAccessors(f, accs)
	return f.GoString()
}

func mustContain(t *testing.T, output string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q\n%s", want, output)
		}
	}
}

func TestSynth_NamingConvention(t *testing.T) {
	out := render(t, &PropertyDescriptor{Name: "health", Recv: "Player", DeclaredType: "int"})

	mustContain(t, out,
		"func (p *Player) _mproxy_get_health(",
		"func (p *Player) _mproxy_set_health(",
	)
}

func TestSynth_PrimitiveNonOptional(t *testing.T) {
	out := render(t, &PropertyDescriptor{Name: "Health", Recv: "Player", DeclaredType: "int"})

	mustContain(t, out,
		"if len(args) == 0 {",
		"v, ok := variant.AsInt(args[0])",
		`variant.PushError("Health: cannot convert argument to int, value unchanged")`,
		"p.Health = int(v)",
	)
	// The getter wraps the current value.
	mustContain(t, out, "v := variant.New(p.Health)", "return &v")
}

func TestSynth_PrimitiveOptionalAssignsUnconditionally(t *testing.T) {
	out := render(t, &PropertyDescriptor{Name: "Label", Recv: "Player", DeclaredType: "string", Optional: true})

	mustContain(t, out,
		"if v, ok := variant.AsString(args[0]); ok {",
		"p.Label = &val",
		"p.Label = nil",
	)
	// No failure path: optional primitives never report to the logging sink.
	if strings.Contains(out, "PushError") {
		t.Errorf("optional primitive setter must not log conversion failures\n%s", out)
	}
	// Absent optional yields nothing from the getter.
	mustContain(t, out, "if p.Label == nil {", "return nil")
}

func TestSynth_Enum(t *testing.T) {
	out := render(t, &PropertyDescriptor{Name: "Mode", Recv: "Player", DeclaredType: "GameMode", Enum: true})

	mustContain(t, out,
		"v := variant.New(int64(p.Mode))",
		"raw, ok := variant.AsInt(args[0])",
		"p.Mode = GameMode(raw)",
	)
	// Conversion failure leaves the property unchanged without logging.
	if strings.Contains(out, "PushError") {
		t.Errorf("enum setter must not log conversion failures\n%s", out)
	}
}

func TestSynth_Passthrough(t *testing.T) {
	out := render(t, &PropertyDescriptor{Name: "Data", Recv: "Player", DeclaredType: VariantTypeName})

	mustContain(t, out, "p.Data = args[0]")
	// No conversion of any kind.
	if strings.Contains(out, "variant.As") {
		t.Errorf("passthrough setter must not convert\n%s", out)
	}
}

func TestSynth_ReferenceRefCountOrder(t *testing.T) {
	out := render(t, &PropertyDescriptor{Name: "Target", Recv: "Player", DeclaredType: "Enemy", Optional: true})

	retain := strings.Index(out, "rc.Retain()")
	assign := strings.Index(out, "p.Target = next")
	release := strings.Index(out, "rc.Release()")
	if retain == -1 || assign == -1 || release == -1 {
		t.Fatalf("reference setter missing refcount dance\n%s", out)
	}
	if !(retain < assign && assign < release) {
		t.Errorf("refcount order wrong: retain=%d assign=%d release=%d", retain, assign, release)
	}

	// Optional: failed downcast clears the property, so the assignment is
	// unconditional on the (possibly nil) downcast result.
	mustContain(t, out, "next, _ := variant.As[*Enemy](args[0])")
}

func TestSynth_RequiredReferenceKeepsValueOnFailedDowncast(t *testing.T) {
	out := render(t, &PropertyDescriptor{Name: "Boss", Recv: "Player", DeclaredType: "Enemy", Optional: true, Required: true})

	mustContain(t, out,
		"next, ok := variant.As[*Enemy](args[0])",
		"if ok {",
		"p.Boss = next",
	)
	// The old value is still released exactly once.
	if strings.Count(out, "rc.Release()") != 1 {
		t.Errorf("expected exactly one release site\n%s", out)
	}
}

func TestSynth_ValueReferenceAssignsByValue(t *testing.T) {
	out := render(t, &PropertyDescriptor{Name: "Friend", Recv: "Player", DeclaredType: "Enemy"})

	mustContain(t, out,
		"next, ok := variant.As[Enemy](args[0])",
		"p.Friend = next",
		"v := variant.New(p.Friend)",
	)
	// A struct value is not reference counted and has no nil state; none of
	// the pointer machinery may leak into the emitted text.
	for _, banned := range []string{"rc.Retain()", "rc.Release()", "!= nil", "== nil", "*Enemy"} {
		if strings.Contains(out, banned) {
			t.Errorf("value-typed reference output must not contain %q\n%s", banned, out)
		}
	}
}

func TestSynth_Collection(t *testing.T) {
	out := render(t, &PropertyDescriptor{
		Name: "Targets", Recv: "Player",
		DeclaredType: CollectionTypeName, Collection: true, ElementType: "Enemy",
	})

	mustContain(t, out,
		"v := variant.New(p.Targets.Array())",
		"arr, ok := variant.AsArray(args[0])",
		`arr.ElementTypeName() != "Enemy"`,
		"!arr.IsTyped()",
		"p.Targets = variant.NewTypedArray[Enemy](arr)",
	)
}

func TestSynth_ObservedHooksWrapAssignment(t *testing.T) {
	out := render(t, &PropertyDescriptor{
		Name: "Health", Recv: "Player", DeclaredType: "int",
		Shape: ShapeObserved, WillSet: "healthWillChange", DidSet: "healthDidChange",
	})

	will := strings.Index(out, "p.healthWillChange()")
	assign := strings.Index(out, "p.Health = int(v)")
	did := strings.Index(out, "p.healthDidChange()")
	if will == -1 || assign == -1 || did == -1 {
		t.Fatalf("observed setter missing hooks\n%s", out)
	}
	if !(will < assign && assign < did) {
		t.Errorf("hook order wrong: will=%d assign=%d did=%d", will, assign, did)
	}
}

func TestSynth_ExplicitAccessorsRouteThroughMethods(t *testing.T) {
	out := render(t, &PropertyDescriptor{
		Name: "health", Recv: "Player", DeclaredType: "int",
		Shape: ShapeExplicitGetSet, Getter: "Health", Setter: "SetHealth",
	})

	mustContain(t, out,
		"v := variant.New(p.Health())",
		"p.SetHealth(int(v))",
	)
}

func TestSynth_PackageLevelProperty(t *testing.T) {
	out := render(t, &PropertyDescriptor{Name: "Score", DeclaredType: "int"})

	mustContain(t, out,
		"func _mproxy_get_Score(",
		"func _mproxy_set_Score(",
		"Score = int(v)",
	)
	if strings.Contains(out, "(p *") {
		t.Errorf("package-level property must not have a receiver\n%s", out)
	}
}

func TestSynth_QualifiedTypesImported(t *testing.T) {
	out := render(t, &PropertyDescriptor{
		Name: "Target", Recv: "Player",
		DeclaredType: "Enemy", TypePkgPath: "example.com/game/units", Optional: true,
	})

	mustContain(t, out, "units.Enemy", `"example.com/game/units"`)
}

func TestSynth_Deterministic(t *testing.T) {
	desc := &PropertyDescriptor{Name: "health", Recv: "Player", DeclaredType: "int"}

	first := render(t, desc)
	second := render(t, desc)
	if first != second {
		t.Error("generation is not deterministic for identical descriptors")
	}
}

func TestSynth_SettersReturnNothing(t *testing.T) {
	descs := []*PropertyDescriptor{
		{Name: "health", Recv: "Player", DeclaredType: "int"},
		{Name: "mode", Recv: "Player", DeclaredType: "GameMode", Enum: true},
		{Name: "data", Recv: "Player", DeclaredType: VariantTypeName},
		{Name: "target", Recv: "Player", DeclaredType: "Enemy", Optional: true},
		{Name: "targets", Recv: "Player", DeclaredType: CollectionTypeName, Collection: true, ElementType: "Enemy"},
	}

	for _, d := range descs {
		acc, genErr := Generate(d, Config{})
		if genErr != nil {
			t.Fatalf("Generate(%s) error: %v", d.Name, genErr)
		}
		f := MakeFile("example.com/game", "game")
		AddAccessors(f, []*Accessors{acc})
		out := f.GoString()

		// Every setter ends by returning the empty result; success and
		// failure are expressed only through side effects.
		setterIdx := strings.Index(out, acc.SetterName)
		if setterIdx == -1 {
			t.Fatalf("%s: setter missing\n%s", d.Name, out)
		}
		setter := out[setterIdx:]
		if !strings.Contains(setter, "return nil") {
			t.Errorf("%s: setter does not return an empty result\n%s", d.Name, setter)
		}
	}
}
