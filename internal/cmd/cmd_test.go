package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/aleksclark/crush-subagents/internal/config"
	"github.com/aleksclark/crush-subagents/internal/prompt"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

type env struct {
	workDir   string
	globalDir string
	moduleDir string
}

func newEnv(t *testing.T) env {
	t.Helper()
	e := env{
		workDir:   t.TempDir(),
		globalDir: t.TempDir(),
		moduleDir: t.TempDir(),
	}
	promptsDir := filepath.Join(e.moduleDir, prompt.PackagedDir)
	require.NoError(t, os.MkdirAll(promptsDir, 0o755))
	for _, name := range []string{prompt.SampleFile, "general.gpt.md"} {
		require.NoError(t, os.WriteFile(filepath.Join(promptsDir, name), []byte("You are "+name+".\n"), 0o644))
	}
	return e
}

func (e env) writeProject(t *testing.T, content string) {
	t.Helper()
	dir := filepath.Join(e.workDir, config.ProjectDirName)
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "subagents.json"), []byte(content), 0o644))
}

func (e env) run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := Root()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(append([]string{args[0], "--cwd", e.workDir, "--global-dir", e.globalDir}, args[1:]...))
	err := root.Execute()
	return stdout.String(), err
}

func TestResolveCmd(t *testing.T) {
	t.Parallel()

	t.Run("single id prints an object", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		out, err := e.run(t, "resolve", "general", "--model", "openai/gpt-5", "--module-dir", e.moduleDir)
		require.NoError(t, err)

		result := gjson.Parse(out)
		require.Equal(t, "general", result.Get("id").String())
		require.Equal(t, "*gpt*", result.Get("variantPattern").String())
		require.Equal(t, "defaults", result.Get("variantSource").String())
		require.Equal(t, "allow", result.Get("profile.permissions.apply_patch").String())
		require.Equal(t, "allow", result.Get("profile.permissions.edit").String())
		require.Equal(t, "builtin", result.Get("promptSource").String())
		require.Equal(t,
			prompt.FileRef(filepath.Join(e.moduleDir, prompt.PackagedDir, "general.gpt.md")),
			result.Get("profile.prompt").String(),
		)
	})

	t.Run("runtime overrides win over project file", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		e.writeProject(t, `{"review": {"model": "anthropic/claude-sonnet-4"}}`)
		out, err := e.run(t, "resolve", "review",
			"--module-dir", e.moduleDir,
			"--set", "review.model=OpenAI/GPT-5:high",
			"--set", `review.whenToUse=["Before merging"]`,
			"--set", "review.description=true",
		)
		require.NoError(t, err)

		result := gjson.Parse(out)
		require.Equal(t, "openai/gpt-5:high", result.Get("profile.model").String())
		require.Equal(t, "true", result.Get("profile.description").String())
		require.Equal(t, int64(1), result.Get("profile.whenToUse.#").Int())
		require.Equal(t, "Before merging", result.Get("profile.whenToUse.0").String())
		var sources []string
		for _, s := range result.Get("sources").Array() {
			sources = append(sources, s.String())
		}
		require.Equal(t, []string{"defaults", "project-file", "runtime-setting"}, sources)
	})

	t.Run("expand prompt reads the file", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		out, err := e.run(t, "resolve", "general", "--module-dir", e.moduleDir, "--expand-prompt")
		require.NoError(t, err)
		require.Equal(t, "You are general.md.", gjson.Get(out, "profile.prompt").String())
	})

	t.Run("all as yaml", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		e.writeProject(t, `{"custom": {"description": "Custom agent"}}`)
		out, err := e.run(t, "resolve", "--all", "--format", "yaml", "--module-dir", e.moduleDir)
		require.NoError(t, err)

		var results []map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(out), &results))
		var ids []string
		for _, r := range results {
			ids = append(ids, r["id"].(string))
		}
		require.Equal(t, []string{"custom", "explore", "general", "plan", "review"}, ids)
	})

	t.Run("usage errors", func(t *testing.T) {
		t.Parallel()

		e := newEnv(t)
		_, err := e.run(t, "resolve")
		require.ErrorContains(t, err, "no subagent given")

		_, err = e.run(t, "resolve", "general", "--format", "toml", "--module-dir", e.moduleDir)
		require.ErrorContains(t, err, "unknown format")

		_, err = e.run(t, "resolve", "general", "--set", "model=openai/gpt-5")
		require.ErrorContains(t, err, "invalid setting")
	})
}

func TestApplySettings(t *testing.T) {
	t.Parallel()

	settings := config.NewMemorySettings()
	require.NoError(t, applySettings(settings, []string{
		"general.model=openai/o3",
		"general.permissions.bash=deny",
		`plan.whenToUse=["first", "second"]`,
		"plan.description=true",
		"review.description=123",
		`explore.description="quoted"`,
		"explore.model=null",
	}))
	require.JSONEq(t, `{
		"general": {"model": "openai/o3", "permissions": {"bash": "deny"}},
		"plan": {"whenToUse": ["first", "second"], "description": "true"},
		"review": {"description": "123"},
		"explore": {"description": "quoted", "model": "null"}
	}`, string(settings.Snapshot()))

	for _, bad := range []string{"general", "general=x", ".model=x", "general.=x"} {
		require.Error(t, applySettings(settings, []string{bad}), bad)
	}
}

func TestSourcesCmd(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	e.writeProject(t, `{"general": {"model": "openai/gpt-5"}}`)

	out, err := e.run(t, "sources")
	require.NoError(t, err)
	require.Contains(t, out, config.DefaultsPath)
	require.Contains(t, out, "global-file")
	require.Contains(t, out, "missing")
	require.Contains(t, out, filepath.Join(e.workDir, config.ProjectDirName, "subagents.json"))

	out, err = e.run(t, "sources", "general")
	require.NoError(t, err)
	require.Equal(t, "SOURCE\ndefaults\nproject-file\n", out)
}

func TestListCmd(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	out, err := e.run(t, "list", "--model", "openai/gpt-5", "--module-dir", e.moduleDir)
	require.NoError(t, err)
	require.Contains(t, out, "DESCRIPTION")
	require.Contains(t, out, "*gpt*")
	require.Contains(t, out, "explore")
}

func TestBuiltinsCmd(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	out, err := e.run(t, "builtins", "--model", "openai/gpt-5", "--module-dir", e.moduleDir)
	require.NoError(t, err)
	require.Contains(t, out, "general.gpt.md")
	require.Contains(t, out, prompt.FileRef(filepath.Join(e.moduleDir, prompt.PackagedDir, "general.gpt.md")))
	require.Contains(t, out, "not found")
}

func TestSchemaCmd(t *testing.T) {
	t.Parallel()

	e := newEnv(t)
	out, err := e.run(t, "schema")
	require.NoError(t, err)
	require.True(t, gjson.Valid(out))
}

func TestDotEnv(t *testing.T) {
	e := newEnv(t)
	t.Setenv(config.GlobalConfigEnv, "")
	require.NoError(t, os.Unsetenv(config.GlobalConfigEnv))

	globalDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(globalDir, "subagents.json"), []byte(`{"plan": {"model": "openai/o3"}}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(e.workDir, ".env"), []byte(config.GlobalConfigEnv+"="+globalDir+"\n"), 0o644))

	var stdout bytes.Buffer
	root := Root()
	root.SetOut(&stdout)
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"resolve", "plan", "--cwd", e.workDir, "--module-dir", e.moduleDir})
	require.NoError(t, root.Execute())
	require.Equal(t, "openai/o3", gjson.Get(stdout.String(), "profile.model").String())
}
