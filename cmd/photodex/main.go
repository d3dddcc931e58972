package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/cesargomez89/photodex/internal/app"
	"github.com/cesargomez89/photodex/internal/config"
	"github.com/cesargomez89/photodex/internal/domain"
	"github.com/cesargomez89/photodex/internal/importer"
	"github.com/cesargomez89/photodex/internal/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	rootCmd := &cobra.Command{
		Use:           "photodex",
		Short:         "index and browse a local photo library",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfg.DBPath, "db", cfg.DBPath, "sqlite database file")
	flags.StringVar(&cfg.ManagedRoot, "managed", cfg.ManagedRoot, "managed library directory")
	flags.StringVar(&cfg.Extractor, "extractor", cfg.Extractor, "metadata extractor (exif, exiftool)")
	flags.IntVar(&cfg.MaxDepth, "depth", cfg.MaxDepth, "maximum directory depth")
	flags.IntVar(&cfg.MaxWorkers, "workers", cfg.MaxWorkers, "maximum import workers")
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		indexCmd(cfg),
		searchCmd(cfg),
		memoriesCmd(cfg),
		statsCmd(cfg),
		albumsCmd(cfg),
		exportCmd(cfg),
		ejectCmd(cfg),
		serveCmd(cfg),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		log.Fatal(err)
	}
}

func newLogger(cfg *config.Config) *logger.Logger {
	return logger.New(logger.Config{
		Level:  cfg.LogLevel,
		Format: cfg.LogFormat,
	})
}

// withLibrary validates cfg, opens the shared library and closes it when
// fn returns.
func withLibrary(cmd *cobra.Command, cfg *config.Config, fn func(ctx context.Context, lib *app.Library) error) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	ctx := cmd.Context()
	lib, err := app.Shared(ctx, cfg, newLogger(cfg))
	if err != nil {
		return err
	}
	defer lib.Close(context.Background())
	return fn(ctx, lib)
}

func indexCmd(cfg *config.Config) *cobra.Command {
	var copyFiles bool
	cmd := &cobra.Command{
		Use:   "index [dir...]",
		Short: "index pictures of directories",
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				if cfg.LibraryRoot == "" {
					args = append(args, ".")
				} else {
					args = append(args, cfg.LibraryRoot)
				}
			}
			return withLibrary(cmd, cfg, func(ctx context.Context, lib *app.Library) error {
				for _, dir := range args {
					if err := runIndex(ctx, lib, dir, copyFiles); err != nil {
						return err
					}
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&copyFiles, "copy", "c", false, "copy files into the managed directory first")
	return cmd
}

func runIndex(ctx context.Context, lib *app.Library, dir string, copyFiles bool) error {
	if copyFiles && lib.Config.ManagedRoot == "" {
		return app.ErrNoManagedRoot
	}
	req := lib.Request(dir, copyFiles)
	req.OnProgress = func(p importer.Progress) {
		if p.Total > 0 {
			fmt.Printf("\rindexing %s: %s/%s", dir, humanize.Comma(int64(p.Completed)), humanize.Comma(int64(p.Total)))
		}
	}

	res, err := lib.Importer.Import(ctx, req)
	fmt.Println()
	if err != nil {
		return err
	}

	for _, fr := range res.Results {
		if fr.Err != nil {
			fmt.Printf("failed %s: %v\n", fr.Path, fr.Err)
		}
	}
	fmt.Printf("indexed %s of %s files in %s (%s)\n",
		humanize.Comma(int64(res.Succeeded())), humanize.Comma(int64(len(res.Results))),
		res.Duration.Round(time.Millisecond), res.State)
	if res.ImportDir != "" {
		fmt.Printf("copied into %s\n", res.ImportDir)
	}
	return nil
}

func searchCmd(cfg *config.Config) *cobra.Command {
	var (
		filters  domain.SearchFilters
		from, to string
		gps      string
		near     [3]float64
	)
	cmd := &cobra.Command{
		Use:   "search",
		Short: "search indexed pictures",
		RunE: func(cmd *cobra.Command, args []string) error {
			if from != "" {
				t, err := time.Parse(time.DateOnly, from)
				if err != nil {
					return fmt.Errorf("invalid --from: %w", err)
				}
				filters.DateFrom = &t
			}
			if to != "" {
				t, err := time.Parse(time.DateOnly, to)
				if err != nil {
					return fmt.Errorf("invalid --to: %w", err)
				}
				t = t.Add(24*time.Hour - time.Millisecond)
				filters.DateTo = &t
			}
			if gps != "" {
				v, err := strconv.ParseBool(gps)
				if err != nil {
					return fmt.Errorf("invalid --gps: %w", err)
				}
				filters.HasGPS = &v
			}
			if cmd.Flags().Changed("radius") {
				filters.NearLocation = &domain.NearLocation{Lat: near[0], Lon: near[1], RadiusKm: near[2]}
			}

			return withLibrary(cmd, cfg, func(ctx context.Context, lib *app.Library) error {
				recs, err := lib.Repo.SearchImages(ctx, filters)
				if err != nil {
					return err
				}
				printImages(recs)
				return nil
			})
		},
	}
	f := cmd.Flags()
	f.StringVarP(&filters.PathContains, "query", "q", "", "path substring")
	f.StringVar(&from, "from", "", "earliest capture date (YYYY-MM-DD)")
	f.StringVar(&to, "to", "", "latest capture date (YYYY-MM-DD)")
	f.StringVar(&gps, "gps", "", "only pictures with (true) or without (false) location")
	f.Float64Var(&near[0], "lat", 0, "latitude of the search centre")
	f.Float64Var(&near[1], "lon", 0, "longitude of the search centre")
	f.Float64Var(&near[2], "radius", 0, "search radius in km")
	f.IntVar(&filters.Offset, "offset", 0, "skip this many results")
	f.IntVar(&filters.Limit, "limit", 50, "maximum results (0 for all)")
	return cmd
}

func memoriesCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "memories month",
		Short: "list pictures taken in a calendar month of any year",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			month, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid month %q", args[0])
			}
			return withLibrary(cmd, cfg, func(ctx context.Context, lib *app.Library) error {
				recs, err := lib.Repo.GetImagesByMonth(ctx, time.Month(month))
				if err != nil {
					return err
				}
				printImages(recs)
				return nil
			})
		},
	}
}

func statsCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "show library statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(cmd, cfg, func(ctx context.Context, lib *app.Library) error {
				stats, err := lib.Repo.GetStatistics(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("images:   %s\n", humanize.Comma(int64(stats.TotalImages)))
				fmt.Printf("size:     %s\n", humanize.Bytes(uint64(stats.TotalSize)))
				fmt.Printf("with gps: %s\n", humanize.Comma(int64(stats.ImagesWithGPS)))
				if stats.DateRange.Earliest != nil && stats.DateRange.Latest != nil {
					fmt.Printf("taken:    %s to %s\n",
						stats.DateRange.Earliest.Format(time.DateOnly), stats.DateRange.Latest.Format(time.DateOnly))
				}
				return nil
			})
		},
	}
}

func albumsCmd(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "albums",
		Short: "list albums",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(cmd, cfg, func(ctx context.Context, lib *app.Library) error {
				albums, err := lib.Repo.GetAlbums(ctx)
				if err != nil {
					return err
				}
				for _, a := range albums {
					fmt.Printf("%4d  %-30s %6s images  created %s\n",
						a.ID, a.Name, humanize.Comma(int64(a.ImageCount)), humanize.Time(a.CreatedAt))
				}
				return nil
			})
		},
	}

	var description string
	createCmd := &cobra.Command{
		Use:   "create name",
		Short: "create an album",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(cmd, cfg, func(ctx context.Context, lib *app.Library) error {
				album, err := lib.Repo.CreateAlbum(ctx, args[0], description)
				if err != nil {
					return err
				}
				fmt.Printf("created album %d %q\n", album.ID, album.Name)
				return nil
			})
		},
	}
	createCmd.Flags().StringVarP(&description, "description", "d", "", "album description")

	addCmd := &cobra.Command{
		Use:   "add album-id image-id [image-id...]",
		Short: "add images to an album",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withLibrary(cmd, cfg, func(ctx context.Context, lib *app.Library) error {
				n, err := lib.Repo.AddImagesToAlbum(ctx, ids[0], ids[1:])
				if err != nil {
					return err
				}
				fmt.Printf("added %d images\n", n)
				return nil
			})
		},
	}

	favCmd := &cobra.Command{
		Use:   "favourite image-id [image-id...]",
		Short: "mark images as favourite",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withLibrary(cmd, cfg, func(ctx context.Context, lib *app.Library) error {
				n, err := lib.Repo.AddToFavourites(ctx, ids)
				if err != nil {
					return err
				}
				fmt.Printf("added %d favourites\n", n)
				return nil
			})
		},
	}

	deleteCmd := &cobra.Command{
		Use:   "delete album-id [album-id...]",
		Short: "delete albums, keeping their images",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ids, err := parseIDs(args)
			if err != nil {
				return err
			}
			return withLibrary(cmd, cfg, func(ctx context.Context, lib *app.Library) error {
				n, err := lib.Repo.DeleteAlbums(ctx, ids)
				if err != nil {
					return err
				}
				fmt.Printf("deleted %d albums\n", n)
				return nil
			})
		},
	}

	cmd.AddCommand(createCmd, addCmd, favCmd, deleteCmd)
	return cmd
}

func exportCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "export file",
		Short: "write a copy of the database to file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(cmd, cfg, func(ctx context.Context, lib *app.Library) error {
				data, err := lib.Repo.ExportDatabase(ctx)
				if err != nil {
					return err
				}
				if err := os.WriteFile(args[0], data, 0644); err != nil {
					return err
				}
				fmt.Printf("wrote %s (%s)\n", args[0], humanize.Bytes(uint64(len(data))))
				return nil
			})
		},
	}
}

func ejectCmd(cfg *config.Config) *cobra.Command {
	return &cobra.Command{
		Use:   "eject",
		Short: "write a copy of the database into the managed directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withLibrary(cmd, cfg, func(ctx context.Context, lib *app.Library) error {
				path, err := lib.Eject(ctx)
				if err != nil {
					return err
				}
				fmt.Printf("ejected to %s\n", path)
				return nil
			})
		},
	}
}

func parseIDs(args []string) ([]int64, error) {
	ids := make([]int64, 0, len(args))
	for _, a := range args {
		id, err := strconv.ParseInt(a, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid id %q", a)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func printImages(recs []*domain.ImageRecord) {
	if recs == nil {
		fmt.Println("library is empty")
		return
	}
	for _, r := range recs {
		taken := "-"
		if r.DateTimeOriginal != nil {
			taken = r.DateTimeOriginal.Format(time.DateTime)
		}
		line := fmt.Sprintf("%6d  %s  %8s  %s", r.ID, taken, humanize.Bytes(uint64(r.FileSize)), r.Path)
		if lat, lon, ok := r.Coordinates(); ok {
			line += fmt.Sprintf("  (%.5f, %.5f)", lat, lon)
		}
		fmt.Println(line)
	}
	fmt.Printf("%s images\n", humanize.Comma(int64(len(recs))))
}
