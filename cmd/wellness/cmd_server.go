package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"syscall"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/wellness360/app/repositories"
	"github.com/shashiranjanraj/wellness360/app/routes"
	"github.com/shashiranjanraj/wellness360/config"
	"github.com/shashiranjanraj/wellness360/internal/server"
	"github.com/shashiranjanraj/wellness360/pkg/schedule"
	"github.com/shashiranjanraj/wellness360/pkg/storage"
)

// wellness serve
var serveCmd = &cobra.Command{
	Use:     "serve",
	Aliases: []string{"run"},
	Short:   "Start the HTTP server, scheduler and community hub",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()
		return server.Serve(ctx)
	},
}

// unwired builds the service graph without connections, enough to
// enumerate routes and scheduled tasks.
func unwired() *routes.App {
	return routes.Wire(nil, storage.Default, repositories.NewMemoryImportReportStore(1), nil)
}

// wellness route:list
var routeListCmd = &cobra.Command{
	Use:   "route:list",
	Short: "List all registered named routes",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Load(); err != nil {
			return err
		}
		infos := server.NewRouter(nil, unwired(), nil).Routes()
		sort.Slice(infos, func(i, j int) bool {
			if infos[i].Path != infos[j].Path {
				return infos[i].Path < infos[j].Path
			}
			return infos[i].Method < infos[j].Method
		})

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPATH\tNAME")
		fmt.Fprintln(w, "------\t----\t----")
		for _, ri := range infos {
			fmt.Fprintf(w, "%s\t%s\t%s\n", ri.Method, ri.Path, ri.Name)
		}
		return w.Flush()
	},
}

// wellness schedule:list
var scheduleListCmd = &cobra.Command{
	Use:   "schedule:list",
	Short: "List the background tasks started by serve",
	RunE: func(cmd *cobra.Command, args []string) error {
		s := schedule.New()
		unwired().Maintenance.Register(s)
		for _, t := range s.List() {
			fmt.Println("  •", t)
		}
		return nil
	},
}
