package secrets

import (
	"context"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"
	"go.uber.org/zap"

	"github.com/Checker-Finance/secret-cache/pkg/utils"
)

const (
	// DefaultDopplerBin is the Doppler CLI looked up on PATH.
	DefaultDopplerBin = "doppler"
	// DopplerReservedPrefix marks Doppler's own metadata entries (DOPPLER_PROJECT, ...).
	DopplerReservedPrefix = "DOPPLER_"
)

// DopplerProvider implements Provider by shelling out to the Doppler CLI.
type DopplerProvider struct {
	logger         *zap.Logger
	bin            string
	reservedPrefix string
	runner         Runner
}

// NewDopplerProvider creates a provider that runs bin through runner.
// Empty bin falls back to DefaultDopplerBin; a nil runner uses ExecRunner.
func NewDopplerProvider(logger *zap.Logger, bin, reservedPrefix string, runner Runner) *DopplerProvider {
	if bin == "" {
		bin = DefaultDopplerBin
	}
	if runner == nil {
		runner = ExecRunner{}
	}
	return &DopplerProvider{
		logger:         logger,
		bin:            bin,
		reservedPrefix: reservedPrefix,
		runner:         runner,
	}
}

// Args returns the backend arguments used for project/environment.
func Args(project, environment string) []string {
	return []string{"--project", project, "--json", "secrets", "--config", environment}
}

// GetSecrets runs `doppler --project P --json secrets --config E` and decodes its output.
func (p *DopplerProvider) GetSecrets(ctx context.Context, project, environment string) (SecretSet, error) {
	p.logger.Debug("doppler.invoke",
		zap.String("bin", p.bin),
		zap.String("project", project),
		zap.String("config", environment))

	res, err := p.runner.Run(ctx, p.bin, Args(project, environment)...)
	if err != nil {
		return nil, &Error{
			Kind: KindInvocation,
			Op:   p.bin,
			Err:  fmt.Errorf("failed to invoke %q, ensure the Doppler CLI is installed and on PATH: %w", p.bin, err),
		}
	}
	if res.ExitCode != 0 {
		detail := strings.TrimSpace(string(res.Stderr))
		if detail == "" {
			detail = fmt.Sprintf("exited with status %d", res.ExitCode)
		}
		p.logger.Warn("doppler.command_failed",
			zap.Int("exit_code", res.ExitCode),
			zap.String("stderr", detail))
		return nil, &Error{Kind: KindBackend, Op: p.bin, Detail: detail}
	}

	set, err := ParseDopplerJSON(res.Stdout, p.reservedPrefix)
	if err != nil {
		return nil, err
	}

	for _, name := range set.Names() {
		p.logger.Debug("doppler.secret", zap.String("name", name), zap.String("value", utils.MaskValue(set[name])))
	}
	return set, nil
}

// ParseDopplerJSON decodes the output of `doppler secrets --json`: an object
// whose values are objects carrying the resolved value in "computed".
// Names starting with reservedPrefix are dropped once the whole document is validated.
func ParseDopplerJSON(data []byte, reservedPrefix string) (SecretSet, error) {
	if !gjson.ValidBytes(data) {
		return nil, newParseError("response is not valid JSON")
	}
	root := gjson.ParseBytes(data)
	if !root.IsObject() {
		return nil, newParseError("expected a JSON object, got "+describe(root))
	}

	set := SecretSet{}
	var perr *Error
	root.ForEach(func(key, value gjson.Result) bool {
		name := key.String()
		if !value.IsObject() {
			perr = newParseError(fmt.Sprintf("secret %q: expected an object, got %s", name, describe(value)))
			return false
		}
		computed := value.Get("computed")
		if computed.Type != gjson.String {
			perr = newParseError(fmt.Sprintf("secret %q: missing string field \"computed\"", name))
			return false
		}
		if !ValidName(name) {
			perr = newParseError(fmt.Sprintf("secret %q: not a valid shell variable name", name))
			return false
		}
		set[name] = computed.String()
		return true
	})
	if perr != nil {
		return nil, perr
	}
	return set.WithoutPrefix(reservedPrefix), nil
}

func describe(r gjson.Result) string {
	switch {
	case r.IsArray():
		return "array"
	case r.IsObject():
		return "object"
	case r.Type == gjson.Null:
		return "null"
	case r.Type == gjson.String:
		return "string"
	case r.Type == gjson.Number:
		return "number"
	default:
		return "boolean"
	}
}
