package secrets

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// --- Fake Runner ---

type fakeRunner struct {
	result RunResult
	err    error
	calls  int
	name   string
	args   []string
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (RunResult, error) {
	f.calls++
	f.name = name
	f.args = args
	return f.result, f.err
}

func newTestProvider(r Runner) *DopplerProvider {
	return NewDopplerProvider(zap.NewNop(), "", DopplerReservedPrefix, r)
}

// ─── GetSecrets ───────────────────────────────────────────────────────────────

func TestDopplerProvider_PassesProjectAndConfig(t *testing.T) {
	r := &fakeRunner{result: RunResult{Stdout: []byte(`{}`)}}
	p := newTestProvider(r)

	_, err := p.GetSecrets(context.Background(), "billing", "prd")
	require.NoError(t, err)

	assert.Equal(t, "doppler", r.name)
	assert.Equal(t, []string{"--project", "billing", "--json", "secrets", "--config", "prd"}, r.args)
}

func TestDopplerProvider_FiltersReservedPrefix(t *testing.T) {
	r := &fakeRunner{result: RunResult{
		Stdout: []byte(`{"DOPPLER_PROJECT":{"computed":"x"},"API_KEY":{"computed":"s3cr3t"}}`),
	}}

	set, err := newTestProvider(r).GetSecrets(context.Background(), "p", "dev")
	require.NoError(t, err)
	assert.Equal(t, SecretSet{"API_KEY": "s3cr3t"}, set)
}

func TestDopplerProvider_BackendFailureCarriesStderr(t *testing.T) {
	r := &fakeRunner{result: RunResult{ExitCode: 1, Stderr: []byte("unauthorized\n")}}

	_, err := newTestProvider(r).GetSecrets(context.Background(), "p", "dev")
	require.Error(t, err)

	var se *Error
	require.True(t, errors.As(err, &se))
	assert.Equal(t, KindBackend, se.Kind)
	assert.Equal(t, "unauthorized", se.Detail)
	assert.Equal(t, "backend error: doppler: unauthorized", err.Error())
}

func TestDopplerProvider_BackendFailureWithoutStderr(t *testing.T) {
	r := &fakeRunner{result: RunResult{ExitCode: 2}}

	_, err := newTestProvider(r).GetSecrets(context.Background(), "p", "dev")
	require.True(t, IsKind(err, KindBackend))
	assert.Contains(t, err.Error(), "exited with status 2")
}

func TestDopplerProvider_InvocationError(t *testing.T) {
	cause := errors.New(`exec: "doppler": executable file not found in $PATH`)
	r := &fakeRunner{err: cause}

	_, err := newTestProvider(r).GetSecrets(context.Background(), "p", "dev")
	require.True(t, IsKind(err, KindInvocation))
	assert.ErrorIs(t, err, cause)
}

func TestDopplerProvider_NonJSONOutput(t *testing.T) {
	r := &fakeRunner{result: RunResult{Stdout: []byte("oops")}}

	_, err := newTestProvider(r).GetSecrets(context.Background(), "p", "dev")
	assert.True(t, IsKind(err, KindParse))
}

func TestDopplerProvider_CustomBinary(t *testing.T) {
	r := &fakeRunner{result: RunResult{Stdout: []byte(`{}`)}}
	p := NewDopplerProvider(zap.NewNop(), "/opt/doppler/bin/doppler", DopplerReservedPrefix, r)

	_, err := p.GetSecrets(context.Background(), "p", "dev")
	require.NoError(t, err)
	assert.Equal(t, "/opt/doppler/bin/doppler", r.name)
}

// ─── ParseDopplerJSON ─────────────────────────────────────────────────────────

func TestParseDopplerJSON_Shapes(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    SecretSet
		wantErr string
	}{
		{
			name:  "empty object",
			input: `{}`,
			want:  SecretSet{},
		},
		{
			name:  "multiple secrets",
			input: `{"A":{"computed":"1","raw":"1"},"B_2":{"computed":"two words","note":""}}`,
			want:  SecretSet{"A": "1", "B_2": "two words"},
		},
		{
			name:  "only reserved keys",
			input: `{"DOPPLER_CONFIG":{"computed":"dev"},"DOPPLER_ENVIRONMENT":{"computed":"dev"}}`,
			want:  SecretSet{},
		},
		{
			name:  "unicode and escapes survive",
			input: `{"MSG":{"computed":"héllo\n\"world\""}}`,
			want:  SecretSet{"MSG": "héllo\n\"world\""},
		},
		{name: "plain text", input: "oops", wantErr: "not valid JSON"},
		{name: "empty output", input: "", wantErr: "not valid JSON"},
		{name: "truncated", input: `{"A":{"computed":"x"}`, wantErr: "not valid JSON"},
		{name: "top-level array", input: `[{"computed":"x"}]`, wantErr: "got array"},
		{name: "value not object", input: `{"A":"x"}`, wantErr: `"A": expected an object, got string`},
		{name: "missing computed", input: `{"A":{"raw":"x"}}`, wantErr: `missing string field "computed"`},
		{name: "computed null", input: `{"A":{"computed":null}}`, wantErr: `missing string field "computed"`},
		{name: "computed number", input: `{"A":{"computed":42}}`, wantErr: `missing string field "computed"`},
		{name: "reserved key still validated", input: `{"DOPPLER_X":5}`, wantErr: "expected an object"},
		{name: "invalid shell name", input: `{"BAD-NAME":{"computed":"x"}}`, wantErr: "not a valid shell variable name"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDopplerJSON([]byte(tt.input), DopplerReservedPrefix)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, IsKind(err, KindParse), "expected parse error, got %v", err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseDopplerJSON_EmptyPrefixKeepsAll(t *testing.T) {
	got, err := ParseDopplerJSON([]byte(`{"DOPPLER_PROJECT":{"computed":"x"}}`), "")
	require.NoError(t, err)
	assert.Equal(t, SecretSet{"DOPPLER_PROJECT": "x"}, got)
}
