package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/thiagokokada/gitbind/internal/git"
)

func (a *app) initCmd() *cobra.Command {
	var bare bool
	cmd := &cobra.Command{
		Use:   "init <path>",
		Short: "Create an empty repository in an existing directory",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			repo, err := git.Init(args[0], bare)
			if err != nil {
				return fmt.Errorf("init %s: %w", args[0], err)
			}
			defer repo.Free()
			kind := "repository"
			if repo.IsBare() {
				kind = "bare repository"
			}
			fmt.Fprintf(a.stdout, "Initialized %s in %s\n", kind, repo.Path())
			return nil
		},
	}
	cmd.Flags().BoolVar(&bare, "bare", false, "create a bare repository")
	return cmd
}

// repoInfo is a snapshot of one repository, taken on a single goroutine.
type repoInfo struct {
	Arg     string
	Path    string
	Workdir string
	Bare    bool
	Shallow bool
	Empty   bool
	State   git.RepositoryState
	Head    string
}

func (a *app) infoCmd() *cobra.Command {
	var asTable bool
	cmd := &cobra.Command{
		Use:   "info [path...]",
		Short: "Describe one or more repositories",
		RunE: func(_ *cobra.Command, args []string) error {
			if len(args) == 0 {
				args = []string{"."}
			}
			infos, err := collectInfo(args)
			if err != nil {
				return err
			}
			if asTable {
				return printInfoTable(a.stdout, infos)
			}
			for i, info := range infos {
				if i > 0 {
					fmt.Fprintln(a.stdout)
				}
				printInfo(a.stdout, info)
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asTable, "table", false, "print one row per repository")
	return cmd
}

// collectInfo opens each path on its own goroutine. A Repository never
// leaves the goroutine that opened it.
func collectInfo(paths []string) ([]repoInfo, error) {
	infos := make([]repoInfo, len(paths))
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for i, path := range paths {
		g.Go(func() error {
			info, err := describe(path)
			if err != nil {
				return fmt.Errorf("info %s: %w", path, err)
			}
			infos[i] = info
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return infos, nil
}

func describe(path string) (repoInfo, error) {
	repo, err := git.Open(path)
	if err != nil {
		return repoInfo{}, err
	}
	defer repo.Free()

	info := repoInfo{
		Arg:     path,
		Path:    repo.Path(),
		Bare:    repo.IsBare(),
		Shallow: repo.IsShallow(),
		State:   repo.State(),
	}
	info.Workdir, _ = repo.Workdir()
	if info.Empty, err = repo.IsEmpty(); err != nil {
		return repoInfo{}, err
	}
	if info.Empty {
		return info, nil
	}
	head, err := repo.RevparseSingle("HEAD")
	switch {
	case err == nil:
		info.Head = head.ID().String()
		head.Free()
	case errors.Is(err, git.ErrNotFound), errors.Is(err, git.ErrUnbornBranch):
		slog.Debug("HEAD does not resolve", slog.String("path", path), slog.Any("error", err))
	default:
		return repoInfo{}, err
	}
	return info, nil
}

func printInfo(w io.Writer, info repoInfo) {
	fmt.Fprintf(w, "%s\n", info.Arg)
	fmt.Fprintf(w, "  path:    %s\n", info.Path)
	if info.Workdir != "" {
		fmt.Fprintf(w, "  workdir: %s\n", info.Workdir)
	}
	fmt.Fprintf(w, "  bare:    %t\n", info.Bare)
	fmt.Fprintf(w, "  shallow: %t\n", info.Shallow)
	fmt.Fprintf(w, "  empty:   %t\n", info.Empty)
	fmt.Fprintf(w, "  state:   %s\n", info.State)
	if info.Head != "" {
		fmt.Fprintf(w, "  head:    %s\n", info.Head)
	}
}

func printInfoTable(w io.Writer, infos []repoInfo) error {
	table := tablewriter.NewWriter(w)
	table.Header("Repository", "Bare", "Shallow", "Empty", "State", "Head")
	for _, info := range infos {
		head := info.Head
		if len(head) > 12 {
			head = head[:12]
		}
		err := table.Append(
			info.Arg,
			strconv.FormatBool(info.Bare),
			strconv.FormatBool(info.Shallow),
			strconv.FormatBool(info.Empty),
			info.State.String(),
			head,
		)
		if err != nil {
			return err
		}
	}
	return table.Render()
}

func (a *app) revParseCmd() *cobra.Command {
	var (
		single bool
		dir    string
	)
	cmd := &cobra.Command{
		Use:   "rev-parse <spec>",
		Short: "Resolve a revision or a range to object ids",
		Args:  cobra.ExactArgs(1),
		RunE: func(_ *cobra.Command, args []string) error {
			repo, err := git.Open(dir)
			if err != nil {
				return fmt.Errorf("rev-parse: %w", err)
			}
			defer repo.Free()

			spec := args[0]
			if single {
				obj, err := repo.RevparseSingle(spec)
				if err != nil {
					return fmt.Errorf("rev-parse %s: %w", spec, err)
				}
				defer obj.Free()
				fmt.Fprintln(a.stdout, obj.ID())
				return nil
			}
			rs, err := repo.Revparse(spec)
			if err != nil {
				return fmt.Errorf("rev-parse %s: %w", spec, err)
			}
			defer rs.Free()
			if !rs.IsRange() {
				fmt.Fprintln(a.stdout, rs.From().ID())
				return nil
			}
			// Same shape as git: the included end first, then the excluded one.
			fmt.Fprintln(a.stdout, rs.To().ID())
			fmt.Fprintf(a.stdout, "^%s\n", rs.From().ID())
			return nil
		},
	}
	cmd.Flags().BoolVar(&single, "single", false, "require the revision to name exactly one object")
	cmd.Flags().StringVarP(&dir, "repo", "C", ".", "repository to resolve in")
	return cmd
}
