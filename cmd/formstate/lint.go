package main

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/goliatone/go-formstate/pkg/field"
	"github.com/goliatone/go-formstate/pkg/fieldconfig"
	"github.com/goliatone/go-formstate/pkg/remote"
)

type violation struct {
	file    string
	message string
}

func newLintCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "lint <path>...",
		Short: "Check field definition files for errors",
		Long: `Parses each definition file and builds its fields, reporting invalid rules,
patterns and remote check templates. Directories are walked for .json,
.yaml and .yml files. With --operation the paths are read as OpenAPI
documents.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			operation, _ := cmd.Flags().GetString("operation")
			client, err := remote.NewClient(a.cfg.BaseURI, remote.WithLogger(a.logger))
			if err != nil {
				return err
			}

			files, err := collectDefinitions(args, operation == "")
			if err != nil {
				return err
			}

			var violations []violation
			for _, path := range files {
				count, err := lintFile(cmd.Context(), client, path, operation)
				if err != nil {
					violations = append(violations, violation{file: path, message: err.Error()})
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d fields)\n", path, count)
			}

			if len(violations) == 0 {
				return nil
			}
			sort.Slice(violations, func(i, j int) bool {
				if violations[i].file == violations[j].file {
					return violations[i].message < violations[j].message
				}
				return violations[i].file < violations[j].file
			})
			for _, v := range violations {
				fmt.Fprintf(cmd.ErrOrStderr(), "%s -> %s\n", v.file, v.message)
			}
			return fmt.Errorf("%d of %d definitions failed lint", len(violations), len(files))
		},
	}

	cmd.Flags().String("operation", "", "Read the paths as OpenAPI documents and lint this operation")
	return cmd
}

func collectDefinitions(paths []string, walk bool) ([]string, error) {
	var files []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, err
		}
		if !info.IsDir() {
			files = append(files, path)
			continue
		}
		if !walk {
			return nil, fmt.Errorf("%s: OpenAPI documents must be named explicitly", path)
		}
		err = filepath.WalkDir(path, func(p string, entry fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			if entry.IsDir() {
				return nil
			}
			switch strings.ToLower(filepath.Ext(p)) {
			case ".json", ".yaml", ".yml":
				files = append(files, p)
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return files, nil
}

func lintFile(ctx context.Context, client *remote.Client, path, operation string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}

	var doc fieldconfig.Document
	if operation != "" {
		doc, err = fieldconfig.FromOpenAPI(ctx, raw, operation)
	} else {
		doc, err = fieldconfig.Parse(raw, path)
	}
	if err != nil {
		return 0, err
	}

	fields, err := doc.Descriptors(fieldconfig.BuildOptions{
		Remote: func(cfg fieldconfig.FieldConfig) (field.AsyncValidator, error) {
			lookup, err := remote.NewLookup(client, cfg.Remote.Path)
			if err != nil {
				return nil, err
			}
			return lookup, nil
		},
	})
	if err != nil {
		return 0, err
	}
	return len(fields), nil
}
