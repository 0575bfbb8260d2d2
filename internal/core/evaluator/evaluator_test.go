package evaluator

import (
	"bytes"
	"log"
	"strings"
	"sync"
	"testing"

	"github.com/louisbranch/rollcheck/internal/core/check"
	"github.com/louisbranch/rollcheck/internal/core/dice"
	"github.com/louisbranch/rollcheck/internal/core/modifier"
	apperrors "github.com/louisbranch/rollcheck/internal/platform/errors"
)

func mustConditions(t *testing.T, kind check.TestKind, p check.Params, die dice.Kind) check.Conditions {
	t.Helper()
	cond, err := check.NewConditions(kind, p, die)
	if err != nil {
		t.Fatalf("NewConditions() error = %v", err)
	}
	return cond
}

func TestBuildIsMemoized(t *testing.T) {
	cache := NewCache()
	e := New(cache)
	cond := mustConditions(t, check.KindAtLeast, check.Target(15), dice.D20)

	first, err := e.Build(dice.D20, cond, nil, check.CritDefault)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	second, err := e.Build(dice.D20, mustConditions(t, check.KindAtLeast, check.Target(15), dice.D20), nil, check.CritDefault)
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	if first != second {
		t.Fatal("expected the cached instance on the second build")
	}
	if cache.Size() != 1 {
		t.Fatalf("Size() = %d, want 1", cache.Size())
	}

	if _, err := e.Build(dice.D20, cond, nil, check.CritOn); err != nil {
		t.Fatal(err)
	}
	if cache.Size() != 2 {
		t.Fatalf("Size() = %d, want 2 after a different policy", cache.Size())
	}

	cache.Clear()
	if cache.Size() != 0 {
		t.Fatalf("Size() after Clear = %d, want 0", cache.Size())
	}
	third, err := e.Build(dice.D20, cond, nil, check.CritDefault)
	if err != nil {
		t.Fatal(err)
	}
	if third == first {
		t.Fatal("expected a new map after Clear")
	}
}

func TestBuildPolicyResolvesBeforeKeying(t *testing.T) {
	cache := NewCache()
	e := New(cache)
	cond := mustConditions(t, check.KindSkill, check.Target(10), dice.D20)

	a, _ := e.Build(dice.D20, cond, nil, check.CritDefault)
	b, _ := e.Build(dice.D20, cond, nil, check.CritOn)
	if a != b {
		t.Fatal("default and explicit on should share a map for skill tests")
	}
}

func TestBuildModifierKeys(t *testing.T) {
	cache := NewCache()
	e := New(cache)
	cond := mustConditions(t, check.KindAtLeast, check.Target(4), dice.D6)

	if _, err := e.Build(dice.D6, cond, modifier.Add(2), check.CritDefault); err != nil {
		t.Fatal(err)
	}
	if _, err := e.Build(dice.D6, cond, modifier.Add(2), check.CritDefault); err != nil {
		t.Fatal(err)
	}
	if cache.Size() != 1 {
		t.Fatalf("Size() = %d, want 1 for equal named modifiers", cache.Size())
	}
	if _, err := e.Build(dice.D6, cond, modifier.Add(3), check.CritDefault); err != nil {
		t.Fatal(err)
	}
	if cache.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", cache.Size())
	}
}

func TestOutcomeMapSemantics(t *testing.T) {
	e := New(nil)
	tests := []struct {
		name   string
		kind   check.TestKind
		params check.Params
		mod    *modifier.Modifier
		policy check.CritPolicy
		want   []check.Outcome
	}{
		{
			name:   "at least without crits",
			kind:   check.KindAtLeast,
			params: check.Target(4),
			want:   []check.Outcome{fail, fail, fail, pass, pass, pass},
		},
		{
			name:   "at least with crits",
			kind:   check.KindAtLeast,
			params: check.Target(6),
			mod:    modifier.Add(-5),
			policy: check.CritOn,
			// only the natural max passes; -5 keeps everything else under 6
			want: []check.Outcome{fail, fail, fail, fail, fail, pass},
		},
		{
			name:   "at most with crits reversed",
			kind:   check.KindAtMost,
			params: check.Target(3),
			policy: check.CritOn,
			want:   []check.Outcome{pass, pass, pass, fail, fail, fail},
		},
		{
			name:   "at most crits override value",
			kind:   check.KindAtMost,
			params: check.Target(6),
			policy: check.CritOn,
			want:   []check.Outcome{pass, pass, pass, pass, pass, fail},
		},
		{
			name:   "exact never overridden",
			kind:   check.KindExact,
			params: check.Target(3),
			policy: check.CritOn,
			want:   []check.Outcome{fail, fail, pass, fail, fail, fail},
		},
		{
			name:   "skill default crits",
			kind:   check.KindSkill,
			params: check.Target(3),
			want:   []check.Outcome{critFail, fail, pass, pass, pass, critPass},
		},
		{
			name:   "skill crits off",
			kind:   check.KindSkill,
			params: check.Target(3),
			policy: check.CritOff,
			want:   []check.Outcome{fail, fail, pass, pass, pass, pass},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cond := mustConditions(t, tt.kind, tt.params, dice.D6)
			m, err := e.Build(dice.D6, cond, tt.mod, tt.policy)
			if err != nil {
				t.Fatalf("Build() error = %v", err)
			}
			got := m.Outcomes()
			for i := range tt.want {
				if got[i] != tt.want[i] {
					t.Fatalf("face %d = %v, want %v (all %v)", i+1, got[i], tt.want[i], got)
				}
			}
		})
	}
}

const (
	fail     = check.OutcomeFailure
	pass     = check.OutcomeSuccess
	critFail = check.OutcomeCriticalFailure
	critPass = check.OutcomeCriticalSuccess
)

func TestSkillNaturalCritIgnoresThresholds(t *testing.T) {
	e := New(nil)
	for _, die := range dice.Kinds() {
		sides := die.Sides()
		for target := 1; target <= sides; target++ {
			cond := mustConditions(t, check.KindSkill, check.Skill(target, sides, 0), die)
			huge, err := check.NewModifiedConditions(check.KindSkill, check.Target(target+1000), die, modifier.Add(1000))
			if err != nil {
				t.Fatal(err)
			}
			for _, c := range []struct {
				cond check.Conditions
				mod  *modifier.Modifier
			}{{cond, nil}, {huge, modifier.Add(1000)}} {
				m, err := e.Build(die, c.cond, c.mod, check.CritDefault)
				if err != nil {
					t.Fatal(err)
				}
				if got := m.Outcome(sides); got != check.OutcomeCriticalSuccess {
					t.Fatalf("%s target %d: max face = %v", die, target, got)
				}
				if got := m.Outcome(1); got != check.OutcomeCriticalFailure {
					t.Fatalf("%s target %d: face 1 = %v", die, target, got)
				}
			}
		}
	}
}

func TestModifiedValues(t *testing.T) {
	e := New(nil)
	mod := modifier.Add(10)
	cond, err := check.NewModifiedConditions(check.KindAtLeast, check.Target(15), dice.D6, mod)
	if err != nil {
		t.Fatal(err)
	}
	m, err := e.Build(dice.D6, cond, mod, check.CritDefault)
	if err != nil {
		t.Fatal(err)
	}
	for base := 1; base <= 6; base++ {
		if m.Modified(base) != base+10 {
			t.Fatalf("Modified(%d) = %d", base, m.Modified(base))
		}
	}
	if m.Outcome(5) != check.OutcomeSuccess || m.Outcome(4) != check.OutcomeFailure {
		t.Fatalf("outcomes = %v", m.Outcomes())
	}
	if _, err := m.Lookup(7); !apperrors.IsCode(err, apperrors.CodeRangeRoll) {
		t.Fatalf("Lookup(7) error = %v", err)
	}
	if m.Outcome(0) != check.OutcomeUnspecified {
		t.Fatal("expected unspecified outside the die")
	}
}

func TestBuildRejectsBadInputs(t *testing.T) {
	e := New(nil)
	cond := mustConditions(t, check.KindAtLeast, check.Target(4), dice.D6)

	if _, err := e.Build(dice.D20, cond, nil, check.CritDefault); !apperrors.IsShape(err) {
		t.Fatalf("die mismatch: %v", err)
	}
	if _, err := e.Build(dice.Kind("d3"), cond, nil, check.CritDefault); !apperrors.IsCode(err, apperrors.CodeShapeUnknownDie) {
		t.Fatalf("unknown die: %v", err)
	}
	if _, err := e.Build(dice.D6, check.Conditions{}, nil, check.CritDefault); !apperrors.IsShape(err) {
		t.Fatalf("zero conditions: %v", err)
	}
}

func TestBuildLogsCacheHits(t *testing.T) {
	var buf bytes.Buffer
	e := New(NewCache(), WithLogger(log.New(&buf, "", 0)))
	cond := mustConditions(t, check.KindExact, check.Target(2), dice.D4)
	for range 2 {
		if _, err := e.Build(dice.D4, cond, nil, check.CritDefault); err != nil {
			t.Fatal(err)
		}
	}
	out := buf.String()
	if !strings.Contains(out, "outcome map built") || !strings.Contains(out, "outcome map cache hit") {
		t.Fatalf("log output = %q", out)
	}
}

func TestSharedCacheConcurrentBuild(t *testing.T) {
	cache := NewCache()
	cond := mustConditions(t, check.KindAtLeast, check.Target(10), dice.D20)
	maps := make([]*OutcomeMap, 16)
	var wg sync.WaitGroup
	for i := range maps {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := New(cache).Build(dice.D20, cond, nil, check.CritDefault)
			if err != nil {
				t.Error(err)
				return
			}
			maps[i] = m
		}()
	}
	wg.Wait()
	for _, m := range maps[1:] {
		if m != maps[0] {
			t.Fatal("concurrent builds returned different instances")
		}
	}
}

func TestExplain(t *testing.T) {
	e := New(nil)
	mod := modifier.Add(3)
	cond, err := check.NewModifiedConditions(check.KindSkill, check.Skill(12, 20, 5), dice.D20, mod)
	if err != nil {
		t.Fatal(err)
	}

	result, err := e.Explain(dice.D20, cond, mod, check.CritDefault, 1)
	if err != nil {
		t.Fatalf("Explain() error = %v", err)
	}
	codes := make([]string, 0, len(result.Steps))
	for _, step := range result.Steps {
		codes = append(codes, step.Code)
	}
	if got := strings.Join(codes, ","); got != "ROLL_BASE,APPLY_MODIFIER,EVALUATE_TEST,NATURAL_CRIT,SELECT_OUTCOME" {
		t.Fatalf("steps = %s", got)
	}
	if result.Entry.Modified != 4 || result.Entry.Evaluated != check.OutcomeCriticalFailure {
		t.Fatalf("entry = %+v", result.Entry)
	}
	if !result.Entry.NaturalCrit || result.Entry.Outcome != check.OutcomeCriticalFailure {
		t.Fatalf("expected natural crit failure, got %+v", result.Entry)
	}
	if margin := result.Steps[2].Data["margin"]; margin != -8 {
		t.Fatalf("margin = %v, want -8", margin)
	}

	result, err = e.Explain(dice.D20, cond, mod, check.CritDefault, 10)
	if err != nil {
		t.Fatal(err)
	}
	if result.Entry.Outcome != check.OutcomeSuccess || result.Entry.NaturalCrit {
		t.Fatalf("face 10 entry = %+v", result.Entry)
	}

	if _, err := e.Explain(dice.D20, cond, mod, check.CritDefault, 21); !apperrors.IsRange(err) {
		t.Fatalf("expected range error, got %v", err)
	}
}

type parityBehavior struct{ even bool }

func (parityBehavior) ValidateShape(check.Params) error { return nil }
func (parityBehavior) ValidateRange(check.Params, check.Range) error { return nil }
func (parityBehavior) NaturalCrit(int, int) (check.Outcome, bool) { return check.OutcomeUnspecified, false }
func (parityBehavior) DefaultNaturalCrit() bool { return false }
func (b parityBehavior) Evaluate(value int, _ check.Params) check.Outcome {
	if (value%2 == 0) == b.even {
		return check.OutcomeSuccess
	}
	return check.OutcomeFailure
}

func TestBuildKeepsRegistriesApart(t *testing.T) {
	evens := check.NewRegistry()
	odds := check.NewRegistry()
	if err := evens.Register("parity", parityBehavior{even: true}); err != nil {
		t.Fatal(err)
	}
	if err := odds.Register("parity", parityBehavior{even: false}); err != nil {
		t.Fatal(err)
	}
	evenCond, err := evens.NewConditions("parity", check.Params{}, dice.D6)
	if err != nil {
		t.Fatal(err)
	}
	oddCond, err := odds.NewConditions("parity", check.Params{}, dice.D6)
	if err != nil {
		t.Fatal(err)
	}

	cache := NewCache()
	e := New(cache)
	evenMap, err := e.Build(dice.D6, evenCond, nil, check.CritDefault)
	if err != nil {
		t.Fatal(err)
	}
	oddMap, err := e.Build(dice.D6, oddCond, nil, check.CritDefault)
	if err != nil {
		t.Fatal(err)
	}
	if cache.Size() != 2 {
		t.Fatalf("Size() = %d, want 2", cache.Size())
	}
	if evenMap.Outcome(2) != check.OutcomeSuccess || oddMap.Outcome(2) != check.OutcomeFailure {
		t.Fatalf("face 2: even=%v odd=%v", evenMap.Outcome(2), oddMap.Outcome(2))
	}

	// replacing a behavior in the same registry must not reuse the old map
	if err := evens.Register("parity", parityBehavior{even: false}); err != nil {
		t.Fatal(err)
	}
	replaced, err := evens.NewConditions("parity", check.Params{}, dice.D6)
	if err != nil {
		t.Fatal(err)
	}
	m, err := e.Build(dice.D6, replaced, nil, check.CritDefault)
	if err != nil {
		t.Fatal(err)
	}
	if m.Outcome(2) != check.OutcomeFailure {
		t.Fatalf("replaced behavior outcome = %v", m.Outcome(2))
	}
}

func TestBuiltinKindsShareKeysAcrossRegistries(t *testing.T) {
	a, err := check.DefaultRegistry().NewConditions(check.KindExact, check.Target(3), dice.D6)
	if err != nil {
		t.Fatal(err)
	}
	b := mustConditions(t, check.KindExact, check.Target(3), dice.D6)
	if Key(dice.D6, a, nil, false) != Key(dice.D6, b, nil, false) {
		t.Fatalf("keys differ: %q vs %q", Key(dice.D6, a, nil, false), Key(dice.D6, b, nil, false))
	}
}

func TestFactory(t *testing.T) {
	e := New(NewCache())
	cond := mustConditions(t, check.KindWithin, check.Between(3, 4), dice.D6)
	factory, err := e.Factory(dice.D6, cond, nil, check.CritDefault)
	if err != nil {
		t.Fatalf("Factory() error = %v", err)
	}
	want := []check.Outcome{
		check.OutcomeFailure, check.OutcomeFailure, check.OutcomeSuccess,
		check.OutcomeSuccess, check.OutcomeFailure, check.OutcomeFailure,
	}
	for i, o := range want {
		if got := factory(i + 1); got != o {
			t.Errorf("factory(%d) = %v, want %v", i+1, got, o)
		}
	}
	if factory(7) != check.OutcomeUnspecified {
		t.Fatal("expected unspecified outside the die")
	}

	m, err := e.Build(dice.D6, cond, nil, check.CritDefault)
	if err != nil {
		t.Fatal(err)
	}
	if m.Factory()(3) != check.OutcomeSuccess {
		t.Fatal("map factory disagrees with the evaluator factory")
	}

	if _, err := e.Factory(dice.D8, cond, nil, check.CritDefault); !apperrors.IsShape(err) {
		t.Fatalf("expected shape error for mismatched die, got %v", err)
	}
}
