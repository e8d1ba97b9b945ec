package builder

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"reflect"
	"regexp"
	"runtime"
	"slices"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/pelletier/go-toml/v2"
)

func boolPtr(b bool) *bool { return &b }

var defaultProfiles = map[string]ProfileSection{
	"release": {
		OptLevel: intOrString{Value: 3},
		Defines:  []string{"__RELEASE__"},
	},
	"debug": {
		OptLevel: intOrString{Value: 0},
		Debug:    boolPtr(true),
		Defines:  []string{"__DEBUG__"},
	},
	"development": {
		OptLevel: intOrString{Value: 1},
		Debug:    boolPtr(true),
		Defines:  []string{"__DEBUG__"},
	},
}

// ModuleConfig is the content of a <Module>.build.toml file
type ModuleConfig struct {
	Module ModuleSection `toml:"module"`
}

// TargetConfig is the content of a <target>.target.toml file
type TargetConfig struct {
	Target  TargetSection             `toml:"target"`
	Profile map[string]ProfileSection `toml:"profile"`
}

func (c TargetConfig) Profiles() []string {
	profiles := make([]string, 0, len(c.Profile))
	for k := range c.Profile {
		profiles = append(profiles, k)
	}
	slices.Sort(profiles)
	return profiles
}

type intOrString struct {
	Value any
}

func (o *intOrString) UnmarshalTOML(v any) error {
	switch val := v.(type) {
	case int64:
		o.Value = int(val)
	case string:
		o.Value = val
	default:
		return fmt.Errorf("unexpected type: %T", v)
	}
	return nil
}

// UnmarshalText is what go-toml/v2 calls for scalar values, so opt-level = 3
// and opt-level = "s" both decode
func (o *intOrString) UnmarshalText(text []byte) error {
	if n, err := strconv.Atoi(string(text)); err == nil {
		o.Value = n
		return nil
	}
	o.Value = string(text)
	return nil
}

func (o *intOrString) String() string {
	if o == nil || o.Value == nil {
		return ""
	}

	switch v := o.Value.(type) {
	case int:
		return strconv.Itoa(v)
	case string:
		return v
	default:
		return ""
	}
}

// ProfileSection defines the [profile.*] section
type ProfileSection struct {
	OptLevel  intOrString `toml:"opt-level"`
	Debug     *bool       `toml:"debug"`
	Defines   []string    `toml:"defines"`
	Arguments []string    `toml:"arguments"`
}

// Args renders the profile as compiler arguments
func (p ProfileSection) Args() []string {
	var args []string
	if optLevel := p.OptLevel.String(); optLevel != "" {
		args = append(args, "-O"+optLevel)
	}
	if p.Debug != nil && *p.Debug {
		args = append(args, "-g")
	}
	for _, define := range p.Defines {
		args = append(args, "-D"+define)
	}
	return append(args, p.Arguments...)
}

// ModuleSection defines the [module(.*)] section. Flags are pointers so that
// conditional sections can switch them off.
type ModuleSection struct {
	Type                  string   `toml:"type"`
	Depends               []string `toml:"depends"`
	CStandard             string   `toml:"c_standard"`
	CxxStandard           string   `toml:"cxx_standard"`
	Arguments             []string `toml:"arguments"`
	LinkThisModule        *bool    `toml:"link_this_module"`
	EnableBinaryLibPrefix *bool    `toml:"enable_binary_lib_prefix"`
	AutoSkipped           *bool    `toml:"auto_skipped"`
	EnableTests           *bool    `toml:"enable_tests"`
	EnableFormatCheck     *bool    `toml:"enable_format_check"`
	BuildThisModule       *bool    `toml:"build_this_module"`
	Fetch                 string   `toml:"fetch"`
	FetchDir              string   `toml:"fetch_dir"`
}

// TargetSection defines the [target(.*)] section
type TargetSection struct {
	Type            string   `toml:"type"`
	Arguments       []string `toml:"arguments"`
	BuildAllModules *bool    `toml:"build_all_modules"`
	ModuleDirs      []string `toml:"module_dirs"`
	Modules         []string `toml:"modules"`
}

func flag(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

// resolve turns the parsed section into a module descriptor with defaults applied
func (s ModuleSection) resolve(name, dir string) (*Module, error) {
	binary, err := ParseBinaryType(s.Type)
	if err != nil {
		return nil, fmt.Errorf("module %q: %w", name, err)
	}
	m := &Module{
		Name:                  name,
		Dir:                   dir,
		Binary:                binary,
		Depends:               s.Depends,
		CStandard:             s.CStandard,
		CxxStandard:           s.CxxStandard,
		Arguments:             s.Arguments,
		LinkThisModule:        flag(s.LinkThisModule, true),
		EnableBinaryLibPrefix: flag(s.EnableBinaryLibPrefix, true),
		AutoSkipped:           flag(s.AutoSkipped, false),
		EnableTests:           flag(s.EnableTests, false),
		EnableFormatCheck:     flag(s.EnableFormatCheck, true),
		BuildThisModule:       flag(s.BuildThisModule, true),
		Fetch:                 s.Fetch,
		FetchDir:              s.FetchDir,
	}
	if m.CStandard == "" {
		m.CStandard = "c17"
	}
	if m.CxxStandard == "" {
		m.CxxStandard = "c++20"
	}
	if m.Fetch != "" && m.FetchDir == "" {
		m.FetchDir = "Private"
	}
	if slices.Contains(m.Depends, name) {
		return nil, fmt.Errorf("module %q depends on itself", name)
	}
	return m, nil
}

func (c *TargetConfig) resolve(name, path string) (*Target, error) {
	typ, err := ParseTargetType(c.Target.Type)
	if err != nil {
		return nil, fmt.Errorf("target %q: %w", name, err)
	}
	t := &Target{
		Name:            name,
		Path:            path,
		Type:            typ,
		Arguments:       c.Target.Arguments,
		BuildAllModules: flag(c.Target.BuildAllModules, len(c.Target.Modules) == 0),
		ModuleDirs:      c.Target.ModuleDirs,
		Modules:         c.Target.Modules,
		Profile:         c.Profile,
	}
	if len(t.ModuleDirs) == 0 {
		t.ModuleDirs = []string{""}
	}
	return t, nil
}

// mergeStructs merges the fields of the src struct into the dst struct
func mergeStructs(dst, src any) error {
	dstVal := reflect.ValueOf(dst)
	if dstVal.Kind() != reflect.Pointer || dstVal.Elem().Kind() != reflect.Struct {
		return fmt.Errorf("dst must be a pointer to a struct")
	}

	dstElem := dstVal.Elem()
	srcVal := reflect.ValueOf(src)

	if srcVal.Kind() == reflect.Pointer {
		srcVal = srcVal.Elem()
	}

	if srcVal.Kind() != reflect.Struct {
		return fmt.Errorf("src must be a struct or a pointer to a struct")
	}

	if dstElem.Type() != srcVal.Type() {
		return fmt.Errorf("dst and src must be of the same struct type")
	}

	for i := range srcVal.NumField() {
		srcField := srcVal.Field(i)
		dstField := dstElem.Field(i)

		if !dstField.CanSet() {
			continue
		}

		switch dstField.Kind() {
		case reflect.Slice:
			if !srcField.IsNil() {
				dstField.Set(reflect.AppendSlice(dstField, srcField))
			}
		case reflect.Map:
			if !srcField.IsNil() {
				if dstField.IsNil() {
					dstField.Set(reflect.MakeMap(dstField.Type()))
				}
				for _, key := range srcField.MapKeys() {
					dstField.SetMapIndex(key, srcField.MapIndex(key))
				}
			}
		case reflect.Bool:
			dstField.SetBool(dstField.Bool() || srcField.Bool())
		default:
			if !srcField.IsZero() {
				dstField.Set(srcField)
			}
		}
	}

	return nil
}

func mustMarshal(v any) string {
	b, err := toml.Marshal(v)
	if err != nil {
		panic(err)
	}
	return string(b)
}

// unmarshalSection is a helper to parse sections without conditional logic
func unmarshalSection(rawCfg map[string]any, name string, dst any) error {
	if data, ok := rawCfg[name]; ok {
		if err := toml.Unmarshal([]byte(mustMarshal(data)), dst); err != nil {
			return fmt.Errorf("failed to parse [%s] section: %w", name, err)
		}
	}
	return nil
}

// unmarshalConditionalSection is a helper to parse, evaluate and merge multiple sections with conditional logic
func unmarshalConditionalSection[T any](rawCfg map[string]any, name string, dst *T, env ConfigEnv) error {
	sectionData, ok := rawCfg[name]
	if !ok {
		return nil
	}

	sectionMap, ok := sectionData.(map[string]any)
	if !ok {
		return fmt.Errorf("invalid [%s] section format: expected a table", name)
	}

	baseFields := make(map[string]any)
	conditionalFields := make(map[string]map[string]any)

	for key, val := range sectionMap {
		if subMap, ok := val.(map[string]any); ok {
			_, err := expr.Compile(key, expr.Env(env))
			if err == nil {
				conditionalFields[key] = subMap
			} else {
				baseFields[key] = val
			}
		} else {
			baseFields[key] = val
		}
	}

	if len(baseFields) > 0 {
		if err := toml.Unmarshal([]byte(mustMarshal(baseFields)), dst); err != nil {
			return fmt.Errorf("failed to parse base [%s] section: %w", name, err)
		}
	}

	// map iteration order is random, merge in a stable order
	expressions := slices.Sorted(maps.Keys(conditionalFields))
	for _, expression := range expressions {
		condMap := conditionalFields[expression]
		program, err := expr.Compile(expression, expr.Env(env))
		if err != nil {
			return fmt.Errorf("failed to compile expression for [%s.%q]: %w", name, expression, err)
		}

		result, err := expr.Run(program, env)
		if err != nil {
			return fmt.Errorf("failed to run expression for [%s.%q]: %w", name, expression, err)
		}

		// merge sections if the result is true
		if matched, ok := result.(bool); !ok || !matched {
			continue
		}

		var condSection T
		if err := toml.Unmarshal([]byte(mustMarshal(condMap)), &condSection); err != nil {
			return fmt.Errorf("failed to parse conditional section [%s.%q]: %w", name, expression, err)
		}
		if err := mergeStructs(dst, condSection); err != nil {
			return fmt.Errorf("failed to merge conditional section [%s.%q]: %w", name, expression, err)
		}
	}

	return nil
}

var exprRegex = regexp.MustCompile(`\{\{(.+?)\}\}`)

// evaluateString finds and evaluates all {{...}} expressions in a string
func evaluateString(s string, env ConfigEnv) (string, error) {
	matches := exprRegex.FindAllStringSubmatchIndex(s, -1)
	if len(matches) == 0 {
		return s, nil
	}

	var builder strings.Builder
	lastIndex := 0

	for _, matchIndexes := range matches {
		fullMatchStart := matchIndexes[0]
		fullMatchEnd := matchIndexes[1]
		expressionStart := matchIndexes[2]
		expressionEnd := matchIndexes[3]

		builder.WriteString(s[lastIndex:fullMatchStart])

		expression := strings.TrimSpace(s[expressionStart:expressionEnd])
		program, err := expr.Compile(expression, expr.Env(env))
		if err != nil {
			return "", fmt.Errorf("failed to compile expression %q: %w", expression, err)
		}

		result, err := expr.Run(program, env)
		if err != nil {
			return "", fmt.Errorf("failed to run expression %q: %w", expression, err)
		}

		builder.WriteString(fmt.Sprintf("%v", result))
		lastIndex = fullMatchEnd
	}

	builder.WriteString(s[lastIndex:])

	return builder.String(), nil
}

// processExpressions recursively walks the parsed TOML data and evaluates expressions in strings
func processExpressions(data any, env ConfigEnv) (any, error) {
	switch v := data.(type) {
	case map[string]any:
		for key, val := range v {
			processedVal, err := processExpressions(val, env)
			if err != nil {
				return nil, err
			}
			v[key] = processedVal
		}
		return v, nil
	case []any:
		for i, item := range v {
			processedItem, err := processExpressions(item, env)
			if err != nil {
				return nil, err
			}
			v[i] = processedItem
		}
		return v, nil
	case string:
		return evaluateString(v, env)
	default:
		return data, nil
	}
}

func decodeRaw(rdr io.Reader, env ConfigEnv) (map[string]any, error) {
	var rawConfig map[string]any
	dec := toml.NewDecoder(rdr)
	if err := dec.Decode(&rawConfig); err != nil {
		var derr *toml.DecodeError
		if errors.As(err, &derr) {
			return nil, errors.New(derr.String())
		}
		return nil, err
	}
	if rawConfig == nil {
		return map[string]any{}, nil
	}

	processedConfig, err := processExpressions(rawConfig, env)
	if err != nil {
		return nil, fmt.Errorf("error processing expressions in config: %w", err)
	}
	return processedConfig.(map[string]any), nil
}

func ParseModuleConfig(rdr io.Reader, env ConfigEnv) (*ModuleConfig, error) {
	rawConfig, err := decodeRaw(rdr, env)
	if err != nil {
		return nil, err
	}

	cfg := new(ModuleConfig)
	if err := unmarshalConditionalSection(rawConfig, "module", &cfg.Module, env); err != nil {
		return nil, err
	}
	return cfg, nil
}

func ParseTargetConfig(rdr io.Reader, env ConfigEnv) (*TargetConfig, error) {
	rawConfig, err := decodeRaw(rdr, env)
	if err != nil {
		return nil, err
	}

	cfg := new(TargetConfig)
	cfg.Profile = maps.Clone(defaultProfiles)

	if err := unmarshalConditionalSection(rawConfig, "target", &cfg.Target, env); err != nil {
		return nil, err
	}
	var profiles map[string]ProfileSection
	if err := unmarshalSection(rawConfig, "profile", &profiles); err != nil {
		return nil, err
	}
	maps.Copy(cfg.Profile, profiles)
	return cfg, nil
}

// ParseModuleConfigFromFile parses a module descriptor from a filepath
func ParseModuleConfigFromFile(path string, env ConfigEnv) (*ModuleConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseModuleConfig(bufio.NewReader(f), env)
}

// ParseTargetConfigFromFile parses a target descriptor from a filepath
func ParseTargetConfigFromFile(path string, env ConfigEnv) (*TargetConfig, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseTargetConfig(bufio.NewReader(f), env)
}

//
// expr-lang environment
//

type ConfigEnv struct {
	TargetOS   string            `expr:"target_os"`
	TargetArch string            `expr:"target_arch"`
	BuildType  string            `expr:"build_type"`
	GccVersion string            `expr:"gcc_version"`
	GxxVersion string            `expr:"gxx_version"`
	Environ    map[string]string `expr:"environ"`
}

func NewConfigEnv(buildType BuildType, tc Toolchain) ConfigEnv {
	environ := make(map[string]string)
	for _, e := range os.Environ() {
		if i := strings.Index(e, "="); i >= 0 {
			environ[e[:i]] = e[i+1:]
		}
	}

	return ConfigEnv{
		TargetOS:   runtime.GOOS,
		TargetArch: runtime.GOARCH,
		BuildType:  buildType.String(),
		GccVersion: tc.CCVersion,
		GxxVersion: tc.CXXVersion,
		Environ:    environ,
	}
}
