// Package html renders a bound survey to an HTML document. Markup comes
// from embedded pongo2 templates; titles and descriptions are sanitized
// with bluemonday; theme tokens become CSS variables. The rendered markup
// is parsed into a DOM tree that backs Lookup, so controls can be driven
// by name the way a browser page would be.
package html

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	xhtml "golang.org/x/net/html"

	"github.com/goliatone/go-surveysync/pkg/engine"
	"github.com/goliatone/go-surveysync/pkg/formengine"
	"github.com/goliatone/go-surveysync/pkg/renderers/html/internal/template"
	theme "github.com/goliatone/go-theme"
)

//go:embed templates/*.tmpl
var embeddedTemplates embed.FS

const surveyTemplate = "survey"

// ErrNotBound reports rendering without a bound survey.
var ErrNotBound = errors.New("html: no survey bound")

// TemplatesFS exposes the embedded templates.
func TemplatesFS() fs.FS {
	sub, err := fs.Sub(embeddedTemplates, "templates")
	if err != nil {
		return embeddedTemplates
	}
	return sub
}

// Container renders surveys to HTML.
type Container struct {
	engine    *template.Engine
	logger    *zap.Logger
	selection *theme.Selection
	themeErr  error
	templates fs.FS

	survey  engine.Survey
	sub     engine.Subscription
	title   string
	doc     *xhtml.Node
	markup  string
	renders int
	lastErr error
}

var (
	_ engine.Container   = (*Container)(nil)
	_ engine.TitleSetter = (*Container)(nil)
)

// Option customises a Container.
type Option func(*Container)

// WithLogger sets the container logger.
func WithLogger(logger *zap.Logger) Option {
	return func(c *Container) {
		c.logger = logger
	}
}

// WithTheme applies a theme selection.
func WithTheme(selection *theme.Selection) Option {
	return func(c *Container) {
		c.selection = selection
	}
}

// WithTemplatesFS replaces the embedded templates. The FS must provide
// survey.tmpl.
func WithTemplatesFS(files fs.FS) Option {
	return func(c *Container) {
		c.templates = files
	}
}

// New builds a container.
func New(opts ...Option) (*Container, error) {
	c := &Container{}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.themeErr != nil {
		return nil, c.themeErr
	}
	if c.logger == nil {
		c.logger = zap.NewNop()
	}
	c.logger = c.logger.Named("html")
	if c.templates == nil {
		c.templates = TemplatesFS()
	}

	tpl, err := template.New(template.WithFS(c.templates))
	if err != nil {
		return nil, fmt.Errorf("html: template engine: %w", err)
	}
	c.engine = tpl
	return c, nil
}

// Clear detaches the current survey and empties the document.
func (c *Container) Clear() {
	if c.sub != nil {
		c.sub.Dispose()
		c.sub = nil
	}
	c.survey = nil
	c.doc = nil
	c.markup = ""
	c.lastErr = nil
}

// Bind attaches survey, re-rendering the document on every render pass, and
// runs the first pass.
func (c *Container) Bind(survey engine.Survey) error {
	if survey == nil {
		return ErrNotBound
	}
	c.Clear()
	c.survey = survey
	c.sub = survey.OnAfterRender(func(engine.AfterRenderEvent) {
		if err := c.refresh(); err != nil {
			c.lastErr = err
			c.logger.Error("render survey", zap.Error(err))
		}
	})
	survey.Render()
	return c.lastErr
}

// SetTitle sets the document title. Markup is stripped.
func (c *Container) SetTitle(title string) {
	c.title = strictPolicy().Sanitize(title)
}

// Title returns the document title.
func (c *Container) Title() string { return c.title }

// Renders reports how many times the document was produced.
func (c *Container) Renders() int { return c.renders }

// HTML returns the current document, including edits made through Lookup
// controls since the last render.
func (c *Container) HTML() string {
	if c.doc == nil {
		return c.markup
	}
	var buf bytes.Buffer
	if err := xhtml.Render(&buf, c.doc); err != nil {
		return c.markup
	}
	return buf.String()
}

// Lookup finds the form elements named name in the current document.
func (c *Container) Lookup(name string) (engine.Control, bool) {
	if c.doc == nil || name == "" {
		return nil, false
	}
	nodes := findByName(c.doc, name)
	if len(nodes) == 0 {
		return nil, false
	}
	return &domControl{container: c, name: name, nodes: nodes}, true
}

// Render produces markup for survey without binding it.
func (c *Container) Render(survey engine.Survey) (string, error) {
	if survey == nil {
		return "", ErrNotBound
	}
	return c.engine.RenderTemplate(surveyTemplate, c.viewData(survey))
}

func (c *Container) refresh() error {
	if c.survey == nil {
		return ErrNotBound
	}
	markup, err := c.Render(c.survey)
	if err != nil {
		return err
	}
	doc, err := xhtml.Parse(strings.NewReader(markup))
	if err != nil {
		return fmt.Errorf("html: parse rendered markup: %w", err)
	}
	c.markup, c.doc = markup, doc
	c.renders++
	return nil
}

// forward hands a DOM event to the question's own control so the engine
// binding sees the new text.
func (c *Container) forward(name, value string, kind engine.EventKind) {
	if c.survey == nil {
		return
	}
	q, ok := c.survey.QuestionByName(name)
	if !ok {
		return
	}
	provider, ok := q.(engine.ControlProvider)
	if !ok {
		return
	}
	control := provider.Control()
	if control == nil {
		return
	}
	control.SetValue(value)
	control.Dispatch(kind)
}

type kindResolver interface {
	Kind(name string) (formengine.Kind, bool)
}

type describer interface {
	Description() string
}

type requirer interface {
	IsRequired() bool
}

type inputTyper interface {
	InputType() string
}

type visibler interface {
	IsVisible() bool
}

func (c *Container) viewData(survey engine.Survey) map[string]any {
	policy := ugcPolicy()

	title := c.title
	if title == "" {
		title = strictPolicy().Sanitize(survey.Definition().Title())
	}

	questions := make([]map[string]any, 0)
	for _, q := range survey.Questions() {
		questions = append(questions, questionView(survey, q, policy))
	}

	settings := engine.DefaultSettings()
	if s, ok := survey.(interface{ Settings() engine.Settings }); ok {
		settings = s.Settings()
	}

	return map[string]any{
		"survey_id": survey.ID(),
		"title":     title,
		"heading":   policy.Sanitize(survey.Definition().Title()),
		"questions": questions,
		"theme":     themeView(c.selection),
		"settings": map[string]any{
			"search":      settings.Dropdown.SearchEnabled,
			"render_mode": settings.Dropdown.RenderMode,
		},
	}
}

func questionView(survey engine.Survey, q engine.Question, policy *bluemonday.Policy) map[string]any {
	input, multiple := true, false
	if resolver, ok := survey.(kindResolver); ok {
		if kind, found := resolver.Kind(q.Name()); found {
			input, multiple = kind.Input, kind.Multiple
		}
	}

	value := engine.FormatControlValue(q.Value())
	view := map[string]any{
		"name":     q.Name(),
		"type":     q.Type(),
		"title":    policy.Sanitize(q.Title()),
		"value":    value,
		"input":    input,
		"multiple": multiple,
		"visible":  true,
	}
	if v, ok := q.(visibler); ok {
		view["visible"] = v.IsVisible()
	}
	if rule, ok := survey.Definition().Question(q.Name()); ok && rule.VisibleIf != "" {
		view["visible_if"] = rule.VisibleIf
	}
	if d, ok := q.(describer); ok && d.Description() != "" {
		view["description"] = policy.Sanitize(d.Description())
	}
	if r, ok := q.(requirer); ok {
		view["required"] = r.IsRequired()
	}
	if it, ok := q.(inputTyper); ok && it.InputType() != "" {
		view["input_type"] = it.InputType()
	}
	if dv, ok := q.(engine.DisplayValuer); ok {
		view["display"] = engine.FormatControlValue(dv.DisplayValue())
	}
	if cq, ok := q.(engine.ChoiceQuestion); ok {
		selected := make(map[string]bool)
		for _, part := range strings.Split(value, ",") {
			if part != "" {
				selected[part] = true
			}
		}
		choices := make([]map[string]any, 0, len(cq.Choices()))
		for _, choice := range cq.Choices() {
			raw := engine.FormatControlValue(choice.Value)
			choices = append(choices, map[string]any{
				"value":    raw,
				"text":     choice.Text,
				"selected": selected[raw],
			})
		}
		view["choices"] = choices
	}
	return view
}

func themeView(selection *theme.Selection) map[string]any {
	if selection == nil {
		return map[string]any{}
	}
	vars := CSSVars(selection)
	return map[string]any{
		"name":    selection.Theme,
		"variant": selection.Variant,
		"css":     cssVarsStyle(vars),
	}
}

// CSSVars derives "--token" variables from the selected manifest, with the
// variant's tokens taking precedence.
func CSSVars(selection *theme.Selection) map[string]string {
	if selection == nil || selection.Manifest == nil {
		return nil
	}
	tokens := make(map[string]string)
	for key, value := range selection.Manifest.Tokens {
		tokens[key] = value
	}
	if variant, ok := selection.Manifest.Variants[selection.Variant]; ok {
		for key, value := range variant.Tokens {
			tokens[key] = value
		}
	}
	vars := make(map[string]string, len(tokens))
	for key, value := range tokens {
		name := strings.TrimSpace(key)
		if name == "" {
			continue
		}
		if !strings.HasPrefix(name, "--") {
			name = "--" + name
		}
		vars[name] = value
	}
	return vars
}

func cssVarsStyle(vars map[string]string) string {
	if len(vars) == 0 {
		return ""
	}
	keys := make([]string, 0, len(vars))
	for key := range vars {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(":root {\n")
	for _, key := range keys {
		b.WriteString(key)
		b.WriteString(": ")
		b.WriteString(vars[key])
		b.WriteString(";\n")
	}
	b.WriteString("}")
	return b.String()
}

var (
	policyOnce sync.Once
	ugc        *bluemonday.Policy
	strict     *bluemonday.Policy
)

func initPolicies() {
	policyOnce.Do(func() {
		ugc = bluemonday.UGCPolicy()
		strict = bluemonday.StrictPolicy()
	})
}

func ugcPolicy() *bluemonday.Policy {
	initPolicies()
	return ugc
}

func strictPolicy() *bluemonday.Policy {
	initPolicies()
	return strict
}
