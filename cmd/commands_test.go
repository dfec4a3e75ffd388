package cmd

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ngraph.dev/pkg/ngraph/internal/adapter"
	"ngraph.dev/pkg/ngraph/internal/controller"
	"ngraph.dev/pkg/ngraph/internal/domain"
)

const testManifest = `rule cc
  command = cc -c $in -o $out
rule link
  command = cc $in -o $out
build main.o: cc main.c
build app: link main.o
default app
`

type commandFixture struct {
	fs     afero.Fs
	root   *cobra.Command
	out    *bytes.Buffer
	errOut *bytes.Buffer
	logDir string
}

// newCommandFixture builds a fresh root command whose workflow reads from an
// in-memory filesystem rooted at /work.
func newCommandFixture(t *testing.T, files map[string]string) *commandFixture {
	t.Helper()

	memFs := afero.NewMemMapFs()
	require.NoError(t, memFs.MkdirAll("/work", 0o755))

	for path, content := range files {
		require.NoError(t, afero.WriteFile(memFs, "/work/"+path, []byte(content), 0o644))
	}

	root := newRootCmd()
	configureRootFlags(root)
	root.AddCommand(newParseCmd(), newTargetsCmd(), newQueryCmd(), newGraphCmd(),
		newDiffCmd(), newCheckCmd(), newBrowseCmd())

	out := &bytes.Buffer{}
	errOut := &bytes.Buffer{}
	root.SetOut(out)
	root.SetErr(errOut)

	previousReader, previousWorkflow := fileReader, workflow

	fileReader = adapter.NewFileReader(memFs, "/work")
	workflow = domain.NewWorkflow(
		fileReader,
		adapter.NewGraphStore(afero.NewBasePathFs(memFs, "/work")),
		controller.NewSimpleUI(root),
		nil,
	)

	t.Cleanup(func() {
		fileReader, workflow = previousReader, previousWorkflow
		dirFlag = ""
		warningFlags = nil
	})

	return &commandFixture{fs: memFs, root: root, out: out, errOut: errOut, logDir: t.TempDir()}
}

func (f *commandFixture) run(args ...string) error {
	f.root.SetArgs(append([]string{"--log-file", filepath.Join(f.logDir, "ngraph.log")}, args...))
	return f.root.ExecuteContext(context.Background())
}

func TestParseCmd(t *testing.T) {
	f := newCommandFixture(t, map[string]string{"build.ninja": testManifest})

	require.NoError(t, f.run("parse"))

	got := f.out.String()
	assert.Contains(t, got, "build.ninja\n")
	assert.Regexp(t, `edges\W+2`, got)
	assert.Regexp(t, `defaults\W+1`, got)
	assert.Empty(t, f.errOut.String())
}

func TestParseCmd_FileFlag(t *testing.T) {
	f := newCommandFixture(t, map[string]string{"other.ninja": testManifest})

	require.NoError(t, f.run("-f", "other.ninja", "parse"))
	assert.Contains(t, f.out.String(), "other.ninja\n")
}

func TestParseCmd_Warnings(t *testing.T) {
	manifest := testManifest + "build app: link main.o\n"

	t.Run("warn", func(t *testing.T) {
		f := newCommandFixture(t, map[string]string{"build.ninja": manifest})

		require.NoError(t, f.run("parse"))
		assert.Contains(t, f.errOut.String(), "ngraph: warning: multiple rules generate app.")
	})

	t.Run("quiet", func(t *testing.T) {
		f := newCommandFixture(t, map[string]string{"build.ninja": manifest})

		require.NoError(t, f.run("--quiet", "parse"))
		assert.NotContains(t, f.errOut.String(), "warning")
	})

	t.Run("err", func(t *testing.T) {
		f := newCommandFixture(t, map[string]string{"build.ninja": manifest})

		err := f.run("-w", "dupbuild=err", "parse")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "multiple rules generate app [-w dupbuild=err]")
		assert.Contains(t, f.errOut.String(), "Error:")
	})
}

func TestParseCmd_MissingManifest(t *testing.T) {
	f := newCommandFixture(t, nil)

	err := f.run("parse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading 'build.ninja'")
}

func TestDirFlag(t *testing.T) {
	f := newCommandFixture(t, map[string]string{"sub/build.ninja": testManifest})

	require.NoError(t, f.run("-C", "sub", "parse"))
	assert.Regexp(t, `edges\W+2`, f.out.String())
}

func TestDirFlag_Missing(t *testing.T) {
	f := newCommandFixture(t, map[string]string{"build.ninja": testManifest})

	err := f.run("-C", "nope", "parse")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chdir to 'nope'")
}

func TestParseTargetsArgs(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		want    domain.TargetsArgs
		wantErr string
	}{
		{"default", nil, domain.TargetsArgs{Mode: domain.TargetsDepth, Depth: 1}, ""},
		{"depth", []string{"depth", "3"}, domain.TargetsArgs{Mode: domain.TargetsDepth, Depth: 3}, ""},
		{"depth unlimited", []string{"depth", "0"}, domain.TargetsArgs{Mode: domain.TargetsDepth}, ""},
		{"rule", []string{"rule", "cc"}, domain.TargetsArgs{Mode: domain.TargetsRule, Rule: "cc", Depth: 1}, ""},
		{"sources", []string{"rule"}, domain.TargetsArgs{Mode: domain.TargetsRule, Depth: 1}, ""},
		{"all", []string{"all"}, domain.TargetsArgs{Mode: domain.TargetsAll, Depth: 1}, ""},
		{"bad depth", []string{"depth", "x"}, domain.TargetsArgs{}, "invalid depth 'x'"},
		{"negative depth", []string{"depth", "-1"}, domain.TargetsArgs{}, "invalid depth '-1'"},
		{"all with argument", []string{"all", "x"}, domain.TargetsArgs{}, "takes no argument"},
		{"unknown", []string{"tree"}, domain.TargetsArgs{}, "unknown target tool mode 'tree'"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseTargetsArgs(tt.args)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestTargetsCmd(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"default depth", []string{"targets"}, "app: link\n"},
		{"depth unlimited", []string{"targets", "depth", "0"}, "app: link\n  main.o: cc\n    main.c\n"},
		{"rule", []string{"targets", "rule", "cc"}, "main.o: cc\n"},
		{"sources", []string{"targets", "rule"}, "main.c\n"},
		{"all", []string{"targets", "all"}, "main.o: cc\napp: link\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newCommandFixture(t, map[string]string{"build.ninja": testManifest})

			require.NoError(t, f.run(tt.args...))
			assert.Equal(t, tt.want, f.out.String())
		})
	}
}

func TestQueryCmd(t *testing.T) {
	f := newCommandFixture(t, map[string]string{"build.ninja": testManifest})

	require.NoError(t, f.run("query", "main.o"))
	assert.Equal(t, "main.o:\n  input: cc\n    main.c\n  outputs:\n    app\n", f.out.String())
}

func TestQueryCmd_Errors(t *testing.T) {
	f := newCommandFixture(t, map[string]string{"build.ninja": testManifest})

	err := f.run("query", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown target 'nope'")

	f = newCommandFixture(t, map[string]string{"build.ninja": testManifest})
	require.Error(t, f.run("query"), "query needs at least one target")
}

func TestGraphCmd(t *testing.T) {
	t.Run("stdout", func(t *testing.T) {
		f := newCommandFixture(t, map[string]string{"build.ninja": testManifest})

		require.NoError(t, f.run("graph"))
		assert.Contains(t, f.out.String(), "manifest: build.ninja")
		assert.Contains(t, f.out.String(), "command: cc main.o -o app")
	})

	t.Run("file", func(t *testing.T) {
		f := newCommandFixture(t, map[string]string{"build.ninja": testManifest})

		require.NoError(t, f.run("graph", "-o", "graph.yaml"))
		assert.Empty(t, f.out.String())

		data, err := afero.ReadFile(f.fs, "/work/graph.yaml")
		require.NoError(t, err)
		assert.Contains(t, string(data), "rule: link")
	})
}

func TestDiffCmd(t *testing.T) {
	f := newCommandFixture(t, map[string]string{
		"a.ninja": testManifest,
		"b.ninja": testManifest + "build extra: phony app\n",
	})

	require.NoError(t, f.run("diff", "a.ninja", "a.ninja"))
	assert.Equal(t, "graphs are identical\n", f.out.String())

	f.out.Reset()

	require.NoError(t, f.run("diff", "a.ninja", "b.ninja"))
	assert.Contains(t, f.out.String(), "--- a.ninja")
	assert.Contains(t, f.out.String(), "+++ b.ninja")
}

func TestCheckCmd(t *testing.T) {
	f := newCommandFixture(t, map[string]string{
		"good.ninja": testManifest,
		"bad.ninja":  "build x: missing\n",
	})

	err := f.run("check", "-j", "2", "good.ninja", "bad.ninja")
	require.ErrorIs(t, err, domain.ErrCheckFailed)

	got := f.out.String()
	assert.Regexp(t, `good\.ninja\W+2\W+3\W+0\W+ok`, got)
	assert.Regexp(t, `bad\.ninja\W+0\W+0\W+0\W+failed`, got)
	assert.Contains(t, got, "unknown build rule 'missing'")
}

func TestBrowseCmd_PlainOutput(t *testing.T) {
	f := newCommandFixture(t, map[string]string{"build.ninja": testManifest})

	require.NoError(t, f.run("browse"))
	assert.Equal(t, "#0 cc: main.o <- main.c\n#1 link: app <- main.o\n", f.out.String())
}
