package main

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/bamsammich/fwt/internal/errs"
	"github.com/bamsammich/fwt/internal/hashcache"
	"github.com/bamsammich/fwt/internal/ui"
)

type indexOpts struct {
	moveAware bool
	purge     bool
	reset     bool
	imports   []string
	remaps    []string
	deletes   []string
	stat      bool
	rootDirs  bool
	allDirs   bool
}

func newIndexCmd(g *globals) *cobra.Command {
	var o indexOpts
	cmd := &cobra.Command{
		Use:   "index [flags] [<dir>...]",
		Short: "Update the hash cache",
		Long: `Index hashes every file under the given directories into the hash cache so
later compare, finddups and merge runs can skip reading unchanged files.

Maintenance steps run in a fixed order: --reset, --delete, --import, --remap,
indexing, --purge, then the --rootdirs, --dirs and --stat listings.`,
		RunE: func(_ *cobra.Command, args []string) error {
			return runIndex(g, o, args)
		},
	}

	f := cmd.Flags()
	f.BoolVar(&o.moveAware, "move", false, "assume files have moved and reuse their cached hashes")
	f.BoolVar(&o.purge, "purge", false, "remove entries for files that no longer exist")
	f.BoolVar(&o.reset, "reset", false, "delete the cache file before anything else")
	f.StringArrayVar(&o.imports, "import", nil, "merge entries from another cache FILE (repeatable)")
	f.StringArrayVar(&o.remaps, "remap", nil, "move entries from directory FROM to TO, given as FROM:TO (repeatable)")
	f.StringArrayVar(&o.deletes, "delete", nil, "remove entries under DIR (repeatable)")
	f.BoolVar(&o.stat, "stat", false, "show cache totals")
	f.BoolVar(&o.rootDirs, "rootdirs", false, "list top-level indexed directories")
	f.BoolVar(&o.allDirs, "dirs", false, "list all indexed directories")
	return cmd
}

//nolint:gocyclo // one branch per maintenance step
func runIndex(g *globals, o indexOpts, dirs []string) error {
	remaps := make([][2]string, 0, len(o.remaps))
	for _, r := range o.remaps {
		parts := strings.Split(r, ":")
		if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
			return errs.Invalid("invalid remap %q: want FROM:TO", r)
		}
		remaps = append(remaps, [2]string{parts[0], parts[1]})
	}

	if o.reset {
		path := hashcache.ResolvePath(g.db)
		if err := hashcache.Reset(path); err != nil {
			return err
		}
		slog.Info("reset hash cache", "path", path)
	}

	cache, err := g.openCache()
	if err != nil {
		return err
	}

	ctx, stop := signalContext()
	defer stop()

	for _, d := range o.deletes {
		n, err := cache.DeleteDir(d)
		if err != nil {
			return err
		}
		slog.Info("deleted entries", "dir", d, "count", n)
	}
	for _, file := range o.imports {
		n, err := cache.Import(ctx, file)
		if err != nil {
			return err
		}
		slog.Info("imported entries", "from", file, "count", n)
	}
	for _, r := range remaps {
		n, err := cache.Remap(r[0], r[1])
		if err != nil {
			return err
		}
		slog.Info("remapped entries", "from", r[0], "to", r[1], "count", n)
	}
	if len(dirs) > 0 {
		if _, err := cache.IndexTree(ctx, dirs, g.filter, o.moveAware); err != nil {
			return err
		}
	}
	if o.purge {
		if _, err := cache.Purge(); err != nil {
			return err
		}
	}

	if o.rootDirs {
		if err := printDirectories(g, cache, true); err != nil {
			return err
		}
	}
	if o.allDirs {
		if err := printDirectories(g, cache, false); err != nil {
			return err
		}
	}
	if o.stat {
		s, err := cache.Summary()
		if err != nil {
			return err
		}
		g.printer.Line("cache: %s", cache.Path())
		g.printer.Line("files: %s  directories: %s  distinct hashes: %s  size: %s",
			ui.FormatCount(s.Files), ui.FormatCount(s.Dirs), ui.FormatCount(s.Hashes), ui.FormatBytes(s.Bytes))
	}

	snap := cache.Stats()
	slog.Debug("index finished",
		"elapsed", ui.FormatDuration(snap.Elapsed),
		"bytes_hashed", ui.FormatBytes(snap.BytesHashed),
		"failed", snap.Failed)
	g.printer.Summary(snap.String())
	if snap.Failed > 0 {
		return &exitError{code: 1}
	}
	return nil
}

func printDirectories(g *globals, cache *hashcache.Cache, rootsOnly bool) error {
	dirs, err := cache.Directories(rootsOnly)
	if err != nil {
		return err
	}
	for _, d := range dirs {
		g.printer.Line("%s", d)
	}
	return nil
}

func newRemapCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "remap <from> <to>",
		Short: "Move cache entries after a directory was renamed or moved",
		Args:  exactArgs(2),
		RunE: func(_ *cobra.Command, args []string) error {
			cache, err := g.openCache()
			if err != nil {
				return err
			}
			n, err := cache.Remap(args[0], args[1])
			if err != nil {
				return err
			}
			g.printer.Summary(fmt.Sprintf("%d remapped.", n))
			return nil
		},
	}
}

func newQueryCmd(g *globals) *cobra.Command {
	var hash, name, pattern string
	cmd := &cobra.Command{
		Use:   "query (--hash HASH | --name NAME | --pattern GLOB)",
		Short: "Look up files in the hash cache",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			set := 0
			for _, flag := range []string{"hash", "name", "pattern"} {
				if cmd.Flags().Changed(flag) {
					set++
				}
			}
			if set != 1 {
				return errs.Invalid("exactly one of --hash, --name or --pattern is required")
			}

			cache, err := g.openCache()
			if err != nil {
				return err
			}

			var entries []hashcache.Entry
			switch {
			case cmd.Flags().Changed("hash"):
				entries, err = cache.QueryByHash(hash)
			case cmd.Flags().Changed("name"):
				entries, err = cache.QueryByName(name)
			default:
				entries, err = cache.QueryByPattern(pattern, g.icase)
			}
			if err != nil {
				return err
			}
			for _, e := range entries {
				g.printer.Line("%s  %10s  %s", e.Hash, ui.FormatBytes(e.Size), e.Path())
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&hash, "hash", "", "files with content hash HASH")
	cmd.Flags().StringVar(&name, "name", "", "files whose base name is NAME")
	cmd.Flags().StringVar(&pattern, "pattern", "", "files whose path matches GLOB")
	return cmd
}
