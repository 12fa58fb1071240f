package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/jedib0t/go-pretty/v6/table"
	"sigs.k8s.io/yaml"

	"owlsync/internal/application/commands"
	"owlsync/internal/domain"
)

// pluginView is the serialized form of a plugin
type pluginView struct {
	Path             string          `json:"path"`
	Name             string          `json:"name"`
	Format           string          `json:"format"`
	Type             string          `json:"type,omitempty"`
	Manufacturer     string          `json:"manufacturer,omitempty"`
	Version          string          `json:"version,omitempty"`
	Category         string          `json:"category,omitempty"`
	Bundle           bool            `json:"bundle"`
	Disabled         bool            `json:"disabled"`
	NativeCompatible bool            `json:"nativeCompatible"`
	SyncComplete     bool            `json:"syncComplete"`
	NativeDiscovery  *bool           `json:"nativeDiscovery,omitempty"`
	Score            int             `json:"score,omitempty"`
	Components       []componentView `json:"components,omitempty"`
}

type componentView struct {
	Name       string `json:"name"`
	Type       string `json:"type,omitempty"`
	Identifier string `json:"identifier,omitempty"`
	UID        string `json:"uid,omitempty"`
}

func newPluginView(p domain.Plugin) pluginView {
	v := pluginView{
		Path:             p.Path,
		Name:             p.Name,
		Format:           p.Format.String(),
		Type:             string(p.Type),
		Manufacturer:     p.ManufacturerName,
		Version:          p.Version,
		Category:         p.Category,
		Bundle:           p.Bundle,
		Disabled:         p.Disabled,
		NativeCompatible: p.NativeCompatible,
		SyncComplete:     p.SyncComplete,
	}
	if p.Footprint != nil {
		enabled := p.Footprint.NativeDiscoveryEnabled
		v.NativeDiscovery = &enabled
	}
	for _, c := range p.Components {
		v.Components = append(v.Components, componentView{
			Name:       c.Name,
			Type:       string(c.Type),
			Identifier: c.Identifier,
			UID:        c.UID,
		})
	}
	return v
}

func pluginViews(plugins []domain.Plugin) []pluginView {
	views := make([]pluginView, len(plugins))
	for i, p := range plugins {
		views[i] = newPluginView(p)
	}
	return views
}

func searchViews(results []commands.SearchResult) []pluginView {
	views := make([]pluginView, len(results))
	for i, r := range results {
		views[i] = newPluginView(r.Plugin)
		views[i].Score = r.Score
	}
	return views
}

// writePlugins encodes plugins as a table, JSON or YAML
func writePlugins(w io.Writer, output string, views []pluginView) error {
	var data []byte
	var err error
	switch output {
	case "table":
		data = encodeTable(views)
	case "json":
		data, err = json.MarshalIndent(views, "", "  ")
		data = append(data, '\n')
	case "yaml":
		data, err = yaml.Marshal(views)
	default:
		err = fmt.Errorf("unknown output format: %q", output)
	}
	if err != nil {
		return fmt.Errorf("encoding plugins as %q failed: %w", output, err)
	}
	_, err = w.Write(data)
	return err
}

func encodeTable(views []pluginView) []byte {
	var buf bytes.Buffer
	if len(views) == 0 {
		buf.WriteString("No plugins.\n")
		return buf.Bytes()
	}

	withScore := views[0].Score > 0
	t := table.NewWriter()
	t.SetOutputMirror(&buf)
	header := table.Row{"Format", "Name", "Manufacturer", "Native", "Path"}
	if withScore {
		header = append(header, "Score")
	}
	t.AppendHeader(header)
	for _, v := range views {
		row := table.Row{v.Format, v.Name, v.Manufacturer, nativeMark(v), v.Path}
		if withScore {
			row = append(row, v.Score)
		}
		t.AppendRow(row)
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, AutoMerge: true},
	})
	style := table.StyleLight
	style.Options.DrawBorder = false
	t.SetStyle(style)
	t.Render()
	return buf.Bytes()
}

func nativeMark(v pluginView) string {
	switch {
	case v.Disabled:
		return "disabled"
	case v.NativeCompatible:
		return "yes"
	default:
		return ""
	}
}

// writePlugin encodes a single plugin. The table form is a field listing.
func writePlugin(w io.Writer, output string, v pluginView) error {
	switch output {
	case "json":
		data, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, err = fmt.Fprintf(w, "%s\n", data)
		return err
	case "yaml":
		data, err := yaml.Marshal(v)
		if err != nil {
			return err
		}
		_, err = w.Write(data)
		return err
	case "table":
	default:
		return fmt.Errorf("unknown output format: %q", output)
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendRow(table.Row{"Name", v.Name})
	t.AppendRow(table.Row{"Path", v.Path})
	t.AppendRow(table.Row{"Format", v.Format})
	t.AppendRow(table.Row{"Type", v.Type})
	t.AppendRow(table.Row{"Manufacturer", v.Manufacturer})
	t.AppendRow(table.Row{"Version", v.Version})
	t.AppendRow(table.Row{"Category", v.Category})
	t.AppendRow(table.Row{"Native compatible", v.NativeCompatible})
	t.AppendRow(table.Row{"Sync complete", v.SyncComplete})
	if v.NativeDiscovery != nil {
		t.AppendRow(table.Row{"Native discovery", *v.NativeDiscovery})
	}
	for i, c := range v.Components {
		label := ""
		if i == 0 {
			label = "Components"
		}
		t.AppendRow(table.Row{label, fmt.Sprintf("%s (%s) %s", c.Name, c.Type, c.Identifier)})
	}
	style := table.StyleLight
	style.Options.DrawBorder = false
	style.Options.SeparateColumns = false
	t.SetStyle(style)
	t.Render()
	return nil
}
