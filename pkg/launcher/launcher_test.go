package launcher_test

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aretw0/nvencoder/internal/logging"
	"github.com/aretw0/nvencoder/internal/testutils"
	"github.com/aretw0/nvencoder/pkg/domain"
	"github.com/aretw0/nvencoder/pkg/launcher"
	"github.com/aretw0/nvencoder/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakePython emulates "python -m venv", "python -m pip" and running a script.
type fakePython struct {
	layout     launcher.Layout
	venvFails  bool
	venvNoop   bool
	pipFails   bool
	entryCode  int
	entryCalls int
}

func (f *fakePython) handler(t *testing.T) testutils.Handler {
	return func(ctx context.Context, cmd ports.Command) error {
		switch {
		case len(cmd.Args) >= 3 && cmd.Args[0] == "-m" && cmd.Args[1] == "venv":
			if f.venvFails {
				return &domain.ExitError{Command: cmd.Name, Code: 1, Stderr: "venv: boom"}
			}
			if f.venvNoop {
				return nil
			}
			root := filepath.Dir(cmd.Args[2])
			testutils.WriteFile(t, root, filepath.ToSlash(f.layout.Marker()), "# activate")
			testutils.WriteFile(t, root, filepath.ToSlash(f.layout.Interpreter()), "")
			return nil
		case len(cmd.Args) >= 2 && cmd.Args[0] == "-m" && cmd.Args[1] == "pip":
			if f.pipFails {
				return &domain.ExitError{Command: cmd.Name, Code: 1, Stderr: "No matching distribution found"}
			}
			return nil
		default:
			f.entryCalls++
			if f.entryCode != 0 {
				return &domain.ExitError{Command: cmd.Name, Code: f.entryCode}
			}
			return nil
		}
	}
}

type fixture struct {
	dir    string
	layout launcher.Layout
	exec   *testutils.FakeExecutor
	python *fakePython
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	layout := launcher.DefaultLayout()
	py := &fakePython{layout: layout}
	exec := testutils.NewFakeExecutor().Handle("python", py.handler(t))
	for _, b := range layout.Bootstrap {
		exec.Handle(b, py.handler(t)).Install(b, "/usr/bin/"+b)
	}
	return &fixture{dir: testutils.TempDir(t), layout: layout, exec: exec, python: py}
}

func (f *fixture) provision(t *testing.T) {
	t.Helper()
	testutils.WriteFile(t, f.dir, filepath.ToSlash(f.layout.Marker()), "# activate")
	testutils.WriteFile(t, f.dir, filepath.ToSlash(f.layout.Interpreter()), "")
}

func (f *fixture) launcher(t *testing.T) *launcher.Launcher {
	t.Helper()
	var out bytes.Buffer
	l, err := launcher.New(f.dir,
		launcher.WithExecutor(f.exec),
		launcher.WithBaseEnv([]string{"PATH=/usr/bin", "PYTHONHOME=/opt/python", "HOME=/home/me"}),
		launcher.WithStdio(strings.NewReader(""), &out, &out),
	)
	require.NoError(t, err)
	return l
}

func venvCalls(e *testutils.FakeExecutor) int {
	n := 0
	for _, c := range e.Calls() {
		if testutils.HasArg(c.Args, "venv") {
			n++
		}
	}
	return n
}

func TestRun_CreatesMissingEnvironment(t *testing.T) {
	f := newFixture(t)
	testutils.WriteFile(t, f.dir, "main.py", "print('hi')")

	l := f.launcher(t)
	require.False(t, l.Environment().Exists())

	report, err := l.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, report.Created)
	assert.True(t, l.Environment().Exists())
	assert.Equal(t, 1, venvCalls(f.exec))

	calls := f.exec.Calls()
	require.NotEmpty(t, calls)
	assert.True(t, testutils.HasArg(calls[0].Args, "venv"), "creation must precede every other step")
	assert.Equal(t, 1, f.python.entryCalls)
}

func TestRun_SkipsCreationWhenMarkerExists(t *testing.T) {
	f := newFixture(t)
	f.provision(t)
	testutils.WriteFile(t, f.dir, "main.py", "print('hi')")

	report, err := f.launcher(t).Run(context.Background())
	require.NoError(t, err)

	assert.False(t, report.Created)
	assert.True(t, report.Activated)
	assert.Zero(t, venvCalls(f.exec))
	assert.Equal(t, 1, f.python.entryCalls)
}

func TestRun_MissingEntryDoesNotSpawn(t *testing.T) {
	f := newFixture(t)
	testutils.WriteFile(t, f.dir, "requirements.txt", "PyQt6\n")

	report, err := f.launcher(t).Run(context.Background())
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrEntryMissing)
	assert.False(t, report.Created)
	assert.False(t, report.EntryStarted)
	assert.Equal(t, "entry", report.FailedStep)
	assert.Empty(t, f.exec.Calls(), "no process may be spawned")
	assert.NoDirExists(t, filepath.Join(f.dir, f.layout.EnvDir))
}

func TestRun_DependencyFailureHaltsBeforeEntry(t *testing.T) {
	f := newFixture(t)
	f.provision(t)
	f.python.pipFails = true
	testutils.WriteFile(t, f.dir, "main.py", "print('hi')")
	testutils.WriteFile(t, f.dir, "requirements.txt", "PyQt6\n")

	report, err := f.launcher(t).Run(context.Background())
	require.Error(t, err)

	assert.ErrorIs(t, err, domain.ErrDependencyInstall)
	assert.Equal(t, "dependencies", report.FailedStep)
	assert.Zero(t, f.python.entryCalls)
}

func TestRun_InstallsManifestWithActivatedEnv(t *testing.T) {
	f := newFixture(t)
	f.provision(t)
	testutils.WriteFile(t, f.dir, "main.py", "print('hi')")
	manifest := testutils.WriteFile(t, f.dir, "requirements.txt", "PyQt6\n")

	l := f.launcher(t)
	report, err := l.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, report.DepsInstalled)

	var pip *testutils.Call
	for _, c := range f.exec.CallsTo("python") {
		if testutils.HasArg(c.Args, "pip") {
			c := c
			pip = &c
		}
	}
	require.NotNil(t, pip)
	assert.Equal(t, l.Environment().Interpreter(), pip.Name)
	assert.Equal(t, manifest, testutils.ArgAfter(pip.Args, "-r"))
	assert.Equal(t, l.Environment().Dir(), launcher.Lookup(pip.Env, "VIRTUAL_ENV", false))
}

func TestRun_MissingManifestIsSkipped(t *testing.T) {
	f := newFixture(t)
	f.provision(t)
	testutils.WriteFile(t, f.dir, "main.py", "print('hi')")

	report, err := f.launcher(t).Run(context.Background())
	require.NoError(t, err)
	assert.False(t, report.DepsInstalled)
	for _, c := range f.exec.Calls() {
		assert.False(t, testutils.HasArg(c.Args, "pip"))
	}
}

func TestRun_CreationFailures(t *testing.T) {
	t.Run("Venv Exits Non-Zero", func(t *testing.T) {
		f := newFixture(t)
		f.python.venvFails = true
		testutils.WriteFile(t, f.dir, "main.py", "")

		report, err := f.launcher(t).Run(context.Background())
		assert.ErrorIs(t, err, domain.ErrEnvironmentCreate)
		assert.Equal(t, "create", report.FailedStep)
		assert.Zero(t, f.python.entryCalls)
	})

	t.Run("Marker Still Missing", func(t *testing.T) {
		f := newFixture(t)
		f.python.venvNoop = true
		testutils.WriteFile(t, f.dir, "main.py", "")

		_, err := f.launcher(t).Run(context.Background())
		assert.ErrorIs(t, err, domain.ErrEnvironmentCreate)
		assert.Contains(t, err.Error(), "missing after creation")
	})

	t.Run("No Bootstrap Interpreter", func(t *testing.T) {
		f := newFixture(t)
		f.exec = testutils.NewFakeExecutor().Handle("python", f.python.handler(t))
		testutils.WriteFile(t, f.dir, "main.py", "")

		_, err := f.launcher(t).Run(context.Background())
		assert.ErrorIs(t, err, domain.ErrEnvironmentCreate)
		assert.ErrorIs(t, err, domain.ErrToolNotFound)
		assert.Empty(t, f.exec.Calls())
	})
}

func TestRun_ActivationFailsWithoutInterpreter(t *testing.T) {
	f := newFixture(t)
	testutils.WriteFile(t, f.dir, filepath.ToSlash(f.layout.Marker()), "# activate")
	testutils.WriteFile(t, f.dir, "main.py", "")

	report, err := f.launcher(t).Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrEnvironmentActivate)
	assert.Equal(t, "activate", report.FailedStep)
	assert.Zero(t, f.python.entryCalls)
}

func TestRun_EntryExitCode(t *testing.T) {
	f := newFixture(t)
	f.provision(t)
	f.python.entryCode = 2
	testutils.WriteFile(t, f.dir, "main.py", "")

	report, err := f.launcher(t).Run(context.Background())
	assert.ErrorIs(t, err, domain.ErrEntryFailed)
	assert.True(t, report.EntryStarted)
	assert.Equal(t, 2, report.EntryExitCode)
}

func TestEnvironment_Activate(t *testing.T) {
	dir := testutils.TempDir(t)
	layout := launcher.DefaultLayoutFor("linux")
	testutils.WriteFile(t, dir, "venv/bin/python", "")

	env, err := launcher.NewEnvironment(dir, layout).Activate([]string{
		"PATH=/usr/bin:/bin",
		"PYTHONHOME=/opt/python",
		"VIRTUAL_ENV=/somewhere/else",
		"LANG=C.UTF-8",
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dir, "venv"), launcher.Lookup(env, "VIRTUAL_ENV", false))
	assert.Equal(t, "venv", launcher.Lookup(env, "VIRTUAL_ENV_PROMPT", false))
	assert.Equal(t, filepath.Join(dir, "venv", "bin")+string(os.PathListSeparator)+"/usr/bin:/bin", launcher.Lookup(env, "PATH", false))
	assert.Empty(t, launcher.Lookup(env, "PYTHONHOME", false))
	assert.Equal(t, "C.UTF-8", launcher.Lookup(env, "LANG", false))
}

func TestEnvironment_ActivateWindowsFoldsKeys(t *testing.T) {
	dir := testutils.TempDir(t)
	layout := launcher.DefaultLayoutFor("windows")
	testutils.WriteFile(t, dir, "venv/Scripts/python.exe", "")

	env, err := launcher.NewEnvironment(dir, layout).Activate([]string{`Path=C:\Windows`, "PythonHome=x"})
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(launcher.Lookup(env, "PATH", true), filepath.Join(dir, "venv", "Scripts")))
	assert.Empty(t, launcher.Lookup(env, "PYTHONHOME", true))
}

func TestLayout_Platforms(t *testing.T) {
	win := launcher.DefaultLayoutFor("windows")
	assert.Equal(t, filepath.Join("venv", "Scripts", "activate.bat"), win.Marker())
	assert.Equal(t, filepath.Join("venv", "Scripts", "python.exe"), win.Interpreter())
	assert.Equal(t, []string{"python", "py"}, win.Bootstrap)

	lin := launcher.DefaultLayoutFor("linux")
	assert.Equal(t, filepath.Join("venv", "bin", "activate"), lin.Marker())
	assert.Equal(t, filepath.Join("venv", "bin", "python"), lin.Interpreter())
	assert.Equal(t, "main.py", lin.Entry)
	assert.Equal(t, "requirements.txt", lin.Manifest)
	assert.Equal(t, []string{"python3", "python"}, lin.Bootstrap)
}

func TestLoadLayout(t *testing.T) {
	t.Run("Defaults Without File", func(t *testing.T) {
		layout, err := launcher.LoadLayout(testutils.TempDir(t), "linux")
		require.NoError(t, err)
		assert.Equal(t, launcher.DefaultLayoutFor("linux"), layout)
	})

	t.Run("YAML Overrides", func(t *testing.T) {
		dir := testutils.TempDir(t)
		testutils.WriteFile(t, dir, "launcher.yaml", "entry: app.py\nenv_dir: .venv\n")

		layout, err := launcher.LoadLayout(dir, "linux")
		require.NoError(t, err)
		assert.Equal(t, "app.py", layout.Entry)
		assert.Equal(t, ".venv", layout.EnvDir)
		assert.Equal(t, "requirements.txt", layout.Manifest)
		assert.Equal(t, filepath.Join(".venv", "bin", "activate"), layout.Marker())
	})

	t.Run("Weak Bootstrap List", func(t *testing.T) {
		dir := testutils.TempDir(t)
		testutils.WriteFile(t, dir, "launcher.yml", "bootstrap: python3.12\nmanifest: deps.txt\n")

		layout, err := launcher.LoadLayout(dir, "linux")
		require.NoError(t, err)
		assert.Equal(t, []string{"python3.12"}, layout.Bootstrap)
		assert.Equal(t, "deps.txt", layout.Manifest)
	})

	t.Run("Unknown Keys", func(t *testing.T) {
		dir := testutils.TempDir(t)
		testutils.WriteFile(t, dir, "launcher.yaml", "entyr: app.py\n")

		_, err := launcher.LoadLayout(dir, "linux")
		assert.ErrorContains(t, err, "entyr")
	})

	t.Run("JSON Is Not Read", func(t *testing.T) {
		dir := testutils.TempDir(t)
		testutils.WriteFile(t, dir, "launcher.json", `{"manifest": "deps.txt"}`)

		layout, err := launcher.LoadLayout(dir, "linux")
		require.NoError(t, err)
		assert.Equal(t, "requirements.txt", layout.Manifest)
	})

	t.Run("Rejects Escaping Paths", func(t *testing.T) {
		dir := testutils.TempDir(t)
		testutils.WriteFile(t, dir, "launcher.yaml", "entry: ../outside.py\n")

		_, err := launcher.LoadLayout(dir, "linux")
		assert.ErrorContains(t, err, "inside the launcher directory")
	})

	t.Run("Malformed File", func(t *testing.T) {
		dir := testutils.TempDir(t)
		testutils.WriteFile(t, dir, "launcher.yaml", "entry: [unterminated\n")

		_, err := launcher.LoadLayout(dir, "linux")
		assert.Error(t, err)
	})
}

func TestMain_ExitCodes(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		f := newFixture(t)
		f.provision(t)
		testutils.WriteFile(t, f.dir, "main.py", "")

		code := launcher.Main(context.Background(), launcher.MainOptions{
			Dir:     f.dir,
			Options: []launcher.Option{launcher.WithExecutor(f.exec)},
		})
		assert.Equal(t, launcher.ExitOK, code)
	})

	t.Run("Failure Pauses", func(t *testing.T) {
		f := newFixture(t)
		f.provision(t)

		var stderr, prompt bytes.Buffer
		code := launcher.Main(context.Background(), launcher.MainOptions{
			Dir:     f.dir,
			Stderr:  &stderr,
			Pauser:  launcher.NewPauserFrom(strings.NewReader("\n"), &prompt, true),
			Options: []launcher.Option{launcher.WithExecutor(f.exec)},
		})
		assert.Equal(t, launcher.ExitFailure, code)
		assert.Contains(t, stderr.String(), "entry point not found")
		assert.Contains(t, prompt.String(), "Press Enter")
	})
	t.Run("Failure Reported Once", func(t *testing.T) {
		f := newFixture(t)

		var stderr bytes.Buffer
		code := launcher.Main(context.Background(), launcher.MainOptions{
			Dir:     f.dir,
			Logger:  logging.NewText(&stderr, slog.LevelInfo),
			Stderr:  &stderr,
			Options: []launcher.Option{launcher.WithExecutor(f.exec)},
		})
		assert.Equal(t, launcher.ExitFailure, code)
		assert.Equal(t, 1, strings.Count(stderr.String(), "entry point not found"))
	})
}

func TestPauser_NonInteractiveDoesNotBlock(t *testing.T) {
	var out bytes.Buffer
	p := launcher.NewPauserFrom(strings.NewReader(""), &out, false)
	p.Pause()
	assert.Empty(t, out.String())

	var nilPauser *launcher.Pauser
	assert.NotPanics(t, nilPauser.Pause)
}
