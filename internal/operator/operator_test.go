package operator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vitaliisemenov/alert-history/internal/accessor"
	"github.com/vitaliisemenov/alert-history/internal/event"
	"github.com/vitaliisemenov/alert-history/internal/scope"
	"github.com/vitaliisemenov/alert-history/internal/value"
)

func ctxWithPayload(t *testing.T, kv map[string]value.Value) accessor.Context {
	t.Helper()
	payload := value.NewObject()
	for k, v := range kv {
		payload.Set(k, v)
	}
	ev := event.New("test", payload, nil)
	return accessor.Context{
		Event: event.NewInternal(ev),
		Scope: scope.New(),
	}
}

func TestEquals(t *testing.T) {
	ctx := ctxWithPayload(t, map[string]value.Value{"severity": value.String("critical")})

	op, err := Build(Config{Type: "equals", First: "${event.payload.severity}", Second: "critical"})
	require.NoError(t, err)
	assert.True(t, op.Evaluate(ctx))

	op2, err := Build(Config{Type: "equals", First: "${event.payload.severity}", Second: "warning"})
	require.NoError(t, err)
	assert.False(t, op2.Evaluate(ctx))

	op3, err := Build(Config{Type: "equals", First: "${event.payload.missing}", Second: "x"})
	require.NoError(t, err)
	assert.False(t, op3.Evaluate(ctx))
}

func TestEqualsCrossTypeNumeric(t *testing.T) {
	ctx := ctxWithPayload(t, map[string]value.Value{"count": value.Int(3), "count_f": value.Float(3)})
	op, err := Build(Config{Type: "equals", First: "${event.payload.count}", Second: "${event.payload.count_f}"})
	require.NoError(t, err)
	assert.True(t, op.Evaluate(ctx))
}

func TestContains(t *testing.T) {
	ctx := ctxWithPayload(t, map[string]value.Value{"message": value.String("disk is FULL now")})

	op, err := Build(Config{Type: "contains", First: "${event.payload.message}", Second: "FULL"})
	require.NoError(t, err)
	assert.True(t, op.Evaluate(ctx))

	opIC, err := Build(Config{Type: "contains_ignore_case", First: "${event.payload.message}", Second: "full"})
	require.NoError(t, err)
	assert.True(t, opIC.Evaluate(ctx))

	opCase, err := Build(Config{Type: "contains", First: "${event.payload.message}", Second: "full"})
	require.NoError(t, err)
	assert.False(t, opCase.Evaluate(ctx))
}

func TestContainsArray(t *testing.T) {
	arr := value.Array([]value.Value{value.String("a"), value.String("b")})
	ctx := ctxWithPayload(t, map[string]value.Value{"tags": arr})

	op, err := Build(Config{Type: "contains", First: "${event.payload.tags}", Second: "b"})
	require.NoError(t, err)
	assert.True(t, op.Evaluate(ctx))

	op2, err := Build(Config{Type: "contains", First: "${event.payload.tags}", Second: "c"})
	require.NoError(t, err)
	assert.False(t, op2.Evaluate(ctx))
}

func TestEqualsIgnoreCase(t *testing.T) {
	ctx := ctxWithPayload(t, map[string]value.Value{"host": value.String("Example.COM")})
	op, err := Build(Config{Type: "equals_ignore_case", First: "${event.payload.host}", Second: "example.com"})
	require.NoError(t, err)
	assert.True(t, op.Evaluate(ctx))
}

func TestRegex(t *testing.T) {
	ctx := ctxWithPayload(t, map[string]value.Value{"host": value.String("web-42.prod")})
	op, err := Build(Config{Type: "regex", Regex: `^web-\d+\.prod$`, Target: "${event.payload.host}"})
	require.NoError(t, err)
	assert.True(t, op.Evaluate(ctx))

	_, err = Build(Config{Type: "regex", Regex: `(unterminated`, Target: "${event.payload.host}"})
	assert.ErrorIs(t, err, ErrInvalidRegex)
}

func TestComparisons(t *testing.T) {
	ctx := ctxWithPayload(t, map[string]value.Value{"n": value.Int(5)})

	cases := []struct {
		kind string
		rhs  string
		want bool
	}{
		{"lt", "10", true},
		{"lt", "1", false},
		{"le", "5", true},
		{"gt", "1", true},
		{"gt", "10", false},
		{"ge", "5", true},
	}
	for _, tc := range cases {
		op, err := Build(Config{Type: tc.kind, First: "${event.payload.n}", Second: tc.rhs})
		require.NoError(t, err)
		assert.Equal(t, tc.want, op.Evaluate(ctx), "%s %s", tc.kind, tc.rhs)
	}
}

func TestComparisonMismatchedKindsIsFalse(t *testing.T) {
	ctx := ctxWithPayload(t, map[string]value.Value{"n": value.Int(5), "s": value.String("five")})
	op, err := Build(Config{Type: "lt", First: "${event.payload.n}", Second: "${event.payload.s}"})
	require.NoError(t, err)
	assert.False(t, op.Evaluate(ctx))
}

func TestAndOrNot(t *testing.T) {
	ctx := ctxWithPayload(t, map[string]value.Value{"severity": value.String("critical")})

	isCritical := Config{Type: "equals", First: "${event.payload.severity}", Second: "critical"}
	isWarning := Config{Type: "equals", First: "${event.payload.severity}", Second: "warning"}

	and, err := Build(Config{Type: "and", Ops: []Config{isCritical, isWarning}})
	require.NoError(t, err)
	assert.False(t, and.Evaluate(ctx))

	or, err := Build(Config{Type: "or", Ops: []Config{isCritical, isWarning}})
	require.NoError(t, err)
	assert.True(t, or.Evaluate(ctx))

	not, err := Build(Config{Type: "not", Op: &isWarning})
	require.NoError(t, err)
	assert.True(t, not.Evaluate(ctx))
}

func TestBuildErrors(t *testing.T) {
	_, err := Build(Config{Type: "and", Ops: nil})
	assert.ErrorIs(t, err, ErrMissingOperand)

	_, err = Build(Config{Type: "not", Op: nil})
	assert.ErrorIs(t, err, ErrMissingOperand)

	_, err = Build(Config{Type: "bogus"})
	assert.ErrorIs(t, err, ErrUnknownType)
}
