package engine

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/goliatone/go-mustache/pkg/cache"
	"github.com/goliatone/go-mustache/pkg/config"
	"github.com/goliatone/go-mustache/pkg/escape"
	"github.com/goliatone/go-mustache/pkg/parse"
	"github.com/goliatone/go-mustache/pkg/partials"
	"github.com/goliatone/go-mustache/pkg/render"
	"github.com/goliatone/go-mustache/pkg/render/template"
)

// Option configures the engine before construction.
type Option func(*options)

type options struct {
	baseDirs   []string
	templates  fs.FS
	extension  string
	templateFn map[string]any
	globalData map[string]any
	partials   map[string]string
	resolvers  []partials.Resolver
	strict     bool
	escaper    escape.Func
	delims     parse.Delims
	logger     *slog.Logger
	cache      *cache.Cache
	err        error
}

// WithConfig applies a config.Config: template paths become base
// directories, and the extension, strict flag, escape mode, delimiters and
// inline partials are copied over.
func WithConfig(cfg config.Config) Option {
	return func(o *options) {
		if err := cfg.Validate(); err != nil {
			o.err = fmt.Errorf("mustache: invalid config: %w", err)
			return
		}
		for _, dir := range cfg.TemplatePaths {
			WithBaseDir(dir)(o)
		}
		WithExtension(cfg.Extension)(o)
		o.strict = o.strict || cfg.Strict
		if fn, err := cfg.Escaper(); err == nil {
			o.escaper = fn
		}
		o.delims = cfg.Delimiters()
		WithPartialSources(cfg.Partials)(o)
	}
}

// WithBaseDir adds a directory on disk to the template search path. It may be
// given more than once; directories are searched in order.
func WithBaseDir(dir string) Option {
	return func(o *options) {
		if trimmed := strings.TrimSpace(dir); trimmed != "" {
			o.baseDirs = append(o.baseDirs, trimmed)
		}
	}
}

// WithFS loads templates and partials from an fs.FS. It is searched before
// any base directory.
func WithFS(files fs.FS) Option {
	return func(o *options) {
		o.templates = files
	}
}

// WithExtension overrides the default template extension.
func WithExtension(ext string) Option {
	return func(o *options) {
		trimmed := strings.TrimSpace(ext)
		if trimmed == "" {
			return
		}
		if !strings.HasPrefix(trimmed, ".") {
			trimmed = "." + trimmed
		}
		o.extension = trimmed
	}
}

// WithTemplateFunc exposes functions to every template as lambdas. Values
// that are not functions are ignored.
func WithTemplateFunc(funcs map[string]any) Option {
	return func(o *options) {
		if len(funcs) == 0 {
			return
		}
		if o.templateFn == nil {
			o.templateFn = make(map[string]any, len(funcs))
		}
		for name, fn := range funcs {
			o.templateFn[strings.TrimSpace(name)] = fn
		}
	}
}

// WithGlobalData seeds values visible to every template below the render data.
func WithGlobalData(data map[string]any) Option {
	return func(o *options) {
		if len(data) == 0 {
			return
		}
		if o.globalData == nil {
			o.globalData = make(map[string]any, len(data))
		}
		for key, value := range data {
			o.globalData[strings.TrimSpace(key)] = value
		}
	}
}

// WithPartialSources registers inline partials by name.
func WithPartialSources(sources map[string]string) Option {
	return func(o *options) {
		if len(sources) == 0 {
			return
		}
		if o.partials == nil {
			o.partials = make(map[string]string, len(sources))
		}
		for name, src := range sources {
			o.partials[strings.TrimSpace(name)] = src
		}
	}
}

// WithPartials appends resolvers consulted after inline partials and the
// template filesystems.
func WithPartials(resolvers ...partials.Resolver) Option {
	return func(o *options) {
		o.resolvers = append(o.resolvers, resolvers...)
	}
}

// WithStrict makes unresolved names and missing partials fail the render.
func WithStrict(strict bool) Option {
	return func(o *options) {
		o.strict = strict
	}
}

// WithEscaper replaces HTML escaping for `{{name}}` tags.
func WithEscaper(fn escape.Func) Option {
	return func(o *options) {
		if fn != nil {
			o.escaper = fn
		}
	}
}

// WithDelims sets the delimiters templates start with.
func WithDelims(delims parse.Delims) Option {
	return func(o *options) {
		o.delims = delims.OrDefault()
	}
}

// WithLogger sets the logger used for debug records. The default discards.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithCache makes the engine share c instead of owning a private cache.
func WithCache(c *cache.Cache) Option {
	return func(o *options) {
		if c != nil {
			o.cache = c
		}
	}
}

// Engine satisfies template.TemplateRenderer with the Mustache renderer.
// Templates are looked up by name through the same resolver chain as
// partials, parsed once and cached.
type Engine struct {
	mu      sync.RWMutex
	globals map[string]any
	filters map[string]struct{}

	inline   *partials.Registry
	resolver partials.Resolver
	renderer *render.Renderer
	cache    *cache.Cache

	strict  bool
	escaper escape.Func
	delims  parse.Delims
	logger  *slog.Logger
}

// Ensure Engine implements the TemplateRenderer interface.
var _ template.TemplateRenderer = (*Engine)(nil)

// New constructs an Engine using the provided configuration options.
func New(opts ...Option) (*Engine, error) {
	o := &options{
		extension: config.DefaultExtension,
		escaper:   escape.HTML,
		delims:    parse.DefaultDelims,
		logger:    slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt(o)
	}
	if o.err != nil {
		return nil, o.err
	}
	if o.cache == nil {
		o.cache = cache.New()
	}

	e := &Engine{
		globals:  make(map[string]any),
		filters:  make(map[string]struct{}),
		inline:   partials.NewRegistry(o.partials),
		renderer: render.New(render.WithCompiler(o.cache), render.WithDelims(o.delims)),
		cache:    o.cache,
		strict:   o.strict,
		escaper:  o.escaper,
		delims:   o.delims,
		logger:   o.logger,
	}

	chain := []partials.Resolver{e.inline}
	if o.templates != nil {
		chain = append(chain, partials.NewFS(o.templates, partials.WithExtension(o.extension)))
	}
	for _, dir := range o.baseDirs {
		chain = append(chain, partials.NewDir(dir, partials.WithExtension(o.extension)))
	}
	chain = append(chain, o.resolvers...)
	e.resolver = partials.Chain(chain...)

	if err := e.GlobalContext(o.globalData); err != nil {
		return nil, fmt.Errorf("mustache: apply global data: %w", err)
	}
	for name, fn := range o.templateFn {
		if err := e.registerTemplateFunc(name, fn); err != nil {
			return nil, fmt.Errorf("mustache: register template func %q: %w", name, err)
		}
	}

	return e, nil
}

// Render renders name as a template when it looks like template content and
// as a template name otherwise.
func (e *Engine) Render(name string, data any, out ...io.Writer) (string, error) {
	if isTemplateContent(name, e.delims) {
		return e.RenderString(name, data, out...)
	}
	return e.RenderTemplate(name, data, out...)
}

// RenderTemplate loads the named template through the resolver chain and
// renders it against data.
func (e *Engine) RenderTemplate(name string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.resolver == nil {
		return "", errors.New("mustache: engine is nil")
	}
	tmpl, err := e.Load(name)
	if err != nil {
		return "", err
	}
	return e.execute(tmpl, data, out)
}

// RenderString parses templateContent and renders it against data.
func (e *Engine) RenderString(templateContent string, data any, out ...io.Writer) (string, error) {
	if e == nil || e.resolver == nil {
		return "", errors.New("mustache: engine is nil")
	}
	tmpl, err := e.Compile(templateContent)
	if err != nil {
		return "", err
	}
	return e.execute(tmpl, data, out)
}

// RenderParsed renders an already parsed template against data.
func (e *Engine) RenderParsed(tmpl *parse.Template, data any, out ...io.Writer) (string, error) {
	if tmpl == nil {
		return "", errors.New("mustache: template is nil")
	}
	return e.execute(tmpl, data, out)
}

// Compile parses source with the engine's starting delimiters through the
// engine cache.
func (e *Engine) Compile(source string) (*parse.Template, error) {
	before := e.cache.ContainsWithDelims(source, e.delims)
	tmpl, err := e.cache.GetWithDelims(source, e.delims)
	if err != nil {
		return nil, fmt.Errorf("mustache: parse template string: %w", err)
	}
	e.logger.Debug("mustache: compile", slog.Bool("cached", before), slog.Int("bytes", len(source)))
	return tmpl, nil
}

// Load resolves and parses the named template.
func (e *Engine) Load(name string) (*parse.Template, error) {
	src, err := e.resolver.Resolve(context.Background(), strings.TrimSpace(name))
	if err != nil {
		return nil, fmt.Errorf("mustache: load template %q: %w", name, err)
	}
	tmpl, err := e.cache.GetWithDelims(src, e.delims)
	if err != nil {
		return nil, fmt.Errorf("mustache: parse template %q: %w", name, err)
	}
	e.logger.Debug("mustache: load template", slog.String("name", name))
	return tmpl, nil
}

// RegisterPartial adds an inline partial. Inline partials shadow files with
// the same name.
func (e *Engine) RegisterPartial(name, source string) error {
	if err := e.inline.Register(name, source); err != nil {
		return fmt.Errorf("mustache: %w", err)
	}
	return nil
}

// RegisterFilter exposes fn as a section lambda named name. The section body
// is rendered first and the result handed to fn as input:
//
//	{{#upper}}Hello {{name}}{{/upper}}
//
// Mustache tags take no arguments, so param is always nil.
func (e *Engine) RegisterFilter(name string, fn func(input any, param any) (any, error)) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || fn == nil {
		return errors.New("mustache: filter name and function required")
	}

	filter := render.RenderFunc(func(text string, renderText func(string) (string, error)) (string, error) {
		rendered, err := renderText(text)
		if err != nil {
			return "", err
		}
		result, err := fn(rendered, nil)
		if err != nil {
			return "", fmt.Errorf("filter %q: %w", trimmed, err)
		}
		if result == nil {
			return "", nil
		}
		return fmt.Sprint(result), nil
	})

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.filters[trimmed]; exists {
		return fmt.Errorf("mustache: filter %q already exists", trimmed)
	}
	e.filters[trimmed] = struct{}{}
	e.globals[trimmed] = filter
	return nil
}

// GlobalContext merges data into the values visible to every template. data
// must be a map or a value that encodes to a JSON object.
func (e *Engine) GlobalContext(data any) error {
	if e == nil {
		return errors.New("mustache: engine is nil")
	}
	if data == nil {
		return nil
	}

	globalCtx, err := convertToContext(data)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	for key, value := range globalCtx {
		e.globals[key] = value
	}
	return nil
}

// Stats reports counters of the engine cache.
func (e *Engine) Stats() cache.Stats {
	return e.cache.Stats()
}

func (e *Engine) execute(tmpl *parse.Template, data any, out []io.Writer) (string, error) {
	c := render.NewContext(e.snapshotGlobals(),
		render.WithStrict(e.strict),
		render.WithEscaper(e.escaper),
		render.WithPartials(e.loggingResolver()),
	)
	if data != nil {
		c.Push(data)
	}

	rendered, err := e.renderer.Render(tmpl.Root, c)
	if err != nil {
		label := tmpl.Name
		if label == "" {
			label = "string"
		}
		return "", fmt.Errorf("mustache: execute template %s: %w", label, err)
	}

	for _, w := range out {
		if _, err := io.WriteString(w, rendered); err != nil {
			return "", err
		}
	}
	return rendered, nil
}

func (e *Engine) snapshotGlobals() map[string]any {
	e.mu.RLock()
	defer e.mu.RUnlock()

	out := make(map[string]any, len(e.globals))
	for key, value := range e.globals {
		out[key] = value
	}
	return out
}

func (e *Engine) loggingResolver() partials.Resolver {
	return partials.ResolverFunc(func(ctx context.Context, name string) (string, error) {
		src, err := e.resolver.Resolve(ctx, name)
		switch {
		case err == nil:
			e.logger.Debug("mustache: partial resolved", slog.String("name", name))
		case errors.Is(err, partials.ErrNotFound):
			e.logger.Debug("mustache: partial not found", slog.String("name", name), slog.Bool("strict", e.strict))
		default:
			e.logger.Error("mustache: partial failed", slog.String("name", name), slog.Any("error", err))
		}
		return src, err
	})
}

func (e *Engine) registerTemplateFunc(name string, fn any) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || fn == nil {
		return nil
	}
	if !isCallable(fn) {
		return nil
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.globals[trimmed] = fn
	return nil
}

func isTemplateContent(s string, delims parse.Delims) bool {
	return strings.Contains(s, delims.Open) || strings.Contains(s, "\n")
}

func isCallable(v any) bool {
	if v == nil {
		return false
	}
	rv := reflect.ValueOf(v)
	return rv.IsValid() && rv.Kind() == reflect.Func
}

func convertToContext(data any) (map[string]any, error) {
	switch v := data.(type) {
	case nil:
		return map[string]any{}, nil
	case map[string]any:
		out := make(map[string]any, len(v))
		for key, value := range v {
			key = strings.TrimSpace(key)
			if key == "" {
				continue
			}
			out[key] = value
		}
		return out, nil
	default:
		return jsonToMap(v)
	}
}

func jsonToMap(v any) (map[string]any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := json.Unmarshal(b, &out); err != nil {
		return nil, err
	}
	return out, nil
}
