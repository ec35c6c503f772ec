package convert

import (
	"bytes"
	"fmt"
	"text/template"
	"time"

	sprig "github.com/go-task/slim-sprig/v3"

	"cssmap/config"
	"cssmap/state"
)

// Values is a struct that holds variables we make available for template expansion
type Values struct {
	Context string
	Source  string
	Base    string
	Host    string
	Prefix  string
	Date    string
}

func expandTemplate(src string, name config.TemplateFieldName, field string, env *state.LocalEnv) (string, error) {
	funcMap := sprig.FuncMap()

	tmpl, err := template.New(string(name)).Funcs(funcMap).Parse(field)
	if err != nil {
		return "", fmt.Errorf("unable to parse template field %s: %w", name, err)
	}

	values := Values{
		Context: string(name),
		Source:  src,
		Base:    sourceBase(src),
		Host:    sourceHost(src),
		Prefix:  env.Cfg.Document.Prefix,
		Date:    time.Now().Format("2006-01-02"),
	}

	buf := new(bytes.Buffer)
	if err := tmpl.Execute(buf, values); err != nil {
		return "", err
	}
	return buf.String(), nil
}
