// Command sqlc regenerates the query code of every package listed in
// .sqlc.base.yaml, one sqlc run per query file so each package gets its own
// output next to its queries.
package main

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v2"
)

const (
	baseConfigName  = ".sqlc.base"
	tempConfigName  = "sqlc.yaml"
	sqlcBinary      = "sqlc"
	engineConfigKey = "sql.0"
)

// renderConfig writes a one-off sqlc.yaml that targets a single query file.
func renderConfig(version string, engine *viper.Viper, queryFile string) (string, error) {
	dir := filepath.Dir(queryFile)
	engine.Set("gen.go.package", filepath.Base(dir))
	engine.Set("gen.go.out", dir)
	engine.Set("queries", queryFile)

	settings := engine.AllSettings()
	delete(settings, "source")

	out := viper.New()
	out.Set("version", version)
	out.Set("sql", []interface{}{settings})

	bs, err := yaml.Marshal(out.AllSettings())
	if err != nil {
		return "", errors.Wrap(err, "marshal sqlc config")
	}
	_ = os.Remove(tempConfigName)
	if err := os.WriteFile(tempConfigName, bs, 0o644); err != nil {
		return "", errors.Wrap(err, "write sqlc config")
	}
	return tempConfigName, nil
}

func generate(config string) error {
	cmd := exec.Command(sqlcBinary, "generate", "--file", config)
	if output, err := cmd.CombinedOutput(); err != nil {
		return errors.Wrapf(err, "sqlc generate: %s", strings.TrimSpace(string(output)))
	}
	return nil
}

func queryFiles(patterns []string) ([]string, error) {
	var files []string
	for _, pattern := range patterns {
		matches, err := filepath.Glob(pattern)
		if err != nil {
			return nil, errors.Wrapf(err, "glob %s", pattern)
		}
		files = append(files, matches...)
	}
	return files, nil
}

func run() error {
	v := viper.New()
	v.SetConfigName(baseConfigName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	if err := v.ReadInConfig(); err != nil {
		return errors.Wrap(err, "read base config")
	}

	files, err := queryFiles(v.GetStringSlice(engineConfigKey + ".source"))
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return errors.New("no query files matched sql.0.source")
	}

	engine := v.Sub(engineConfigKey)
	engine.Set("schema", v.GetString(engineConfigKey+".schema"))
	defer os.Remove(tempConfigName)

	for _, file := range files {
		config, err := renderConfig(v.GetString("version"), engine, file)
		if err != nil {
			return err
		}
		if err := generate(config); err != nil {
			return errors.Wrap(err, file)
		}
		fmt.Printf("%s done\n", file)
	}
	return nil
}

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "sqlc: %v\n", err)
		os.Exit(1)
	}
}
