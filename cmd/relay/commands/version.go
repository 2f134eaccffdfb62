package commands

import (
	"io"
	"runtime"
	"runtime/debug"
	"text/template"

	"github.com/spf13/cobra"
)

// Version 由 -ldflags "-X github.com/uniyakcom/relay/cmd/relay/commands.Version=..." 注入
var Version = "dev"

var versionTemplate = `Version:      {{.Version}}
Module:       {{.Module}}
Go version:   {{.GoVersion}}
OS/Arch:      {{.Os}}/{{.Arch}}
`

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of relay",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printVersion(cmd.OutOrStdout())
		},
	}
}

func printVersion(w io.Writer) error {
	tmpl, err := template.New("version").Parse(versionTemplate)
	if err != nil {
		return err
	}
	module := "github.com/uniyakcom/relay"
	if bi, ok := debug.ReadBuildInfo(); ok && bi.Main.Version != "" && bi.Main.Version != "(devel)" {
		module += "@" + bi.Main.Version
	}
	return tmpl.Execute(w, struct {
		Version   string
		Module    string
		GoVersion string
		Os        string
		Arch      string
	}{
		Version:   Version,
		Module:    module,
		GoVersion: runtime.Version(),
		Os:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	})
}
