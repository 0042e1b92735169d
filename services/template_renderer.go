package services

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"html/template"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"newsletter-backend/models"
)

//go:embed templates/newsletter.mjml
var defaultTemplate string

var templateFuncs = template.FuncMap{"join": strings.Join}

type templateData struct {
	Sections []models.NewsletterSection
	Hero     *models.ImageAsset
	Metadata map[string]string
}

// TemplateRenderer renders the MJML template and compiles it to HTML
// with the mjml CLI.
type TemplateRenderer struct {
	tmpl    *template.Template
	binary  string
	timeout time.Duration
	logger  *slog.Logger
}

// NewTemplateRenderer loads the template at path, or the embedded
// default when path is empty.
func NewTemplateRenderer(path, binary string, timeout time.Duration, logger *slog.Logger) (*TemplateRenderer, error) {
	name, src := "newsletter.mjml", defaultTemplate
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read template: %w", err)
		}
		name, src = filepath.Base(path), string(b)
	}
	tmpl, err := template.New(name).Funcs(templateFuncs).Parse(src)
	if err != nil {
		return nil, fmt.Errorf("parse template: %w", err)
	}
	return &TemplateRenderer{tmpl: tmpl, binary: binary, timeout: timeout, logger: logger}, nil
}

// Render returns the MJML markup and the compiled HTML. When the
// compiler is not installed the HTML is the raw markup.
func (r *TemplateRenderer) Render(ctx context.Context, sections []models.NewsletterSection, hero *models.ImageAsset, metadata map[string]string) (string, string, error) {
	var buf bytes.Buffer
	if err := r.tmpl.Execute(&buf, templateData{Sections: sections, Hero: hero, Metadata: metadata}); err != nil {
		return "", "", fmt.Errorf("%w: execute template: %v", models.ErrRenderFailure, err)
	}
	markup := buf.String()

	html, err := r.compile(ctx, markup)
	if err != nil {
		return markup, "", err
	}
	return markup, html, nil
}

func (r *TemplateRenderer) compile(ctx context.Context, markup string) (string, error) {
	executable, err := exec.LookPath(r.binary)
	if err != nil {
		r.logger.Warn("mjml.compiler_missing", "message", "MJML CLI not found; returning raw MJML")
		return markup, nil
	}

	f, err := os.CreateTemp("", "newsletter-*.mjml")
	if err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrRenderFailure, err)
	}
	defer os.Remove(f.Name())
	if _, err := f.WriteString(markup); err != nil {
		f.Close()
		return "", fmt.Errorf("%w: %v", models.ErrRenderFailure, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("%w: %v", models.ErrRenderFailure, err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, executable, f.Name(), "-s")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		r.logger.Error("mjml.compile_failed", "stderr", msg, "error", err)
		var exitErr *exec.ExitError
		if msg == "" && !errors.As(err, &exitErr) {
			msg = err.Error()
		}
		return "", fmt.Errorf("%w: MJML compilation failed: %s", models.ErrRenderFailure, msg)
	}
	return stdout.String(), nil
}
