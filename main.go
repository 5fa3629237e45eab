package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"auto_content_syndicator/config"
	"auto_content_syndicator/generator"
	"auto_content_syndicator/images"
	"auto_content_syndicator/logger"
	"auto_content_syndicator/metrics"
	"auto_content_syndicator/publisher"
	"auto_content_syndicator/server"
	"auto_content_syndicator/strategy"
)

var (
	configPath string
	verbose    bool
)

// app is the per-invocation wiring shared by every command.
type app struct {
	cfg *config.Config
	log *logger.Logger
	out io.Writer
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "syndicate",
		Short:         "Turn one content record into platform-ready payloads",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to syndicate.yaml (default $SYNDICATE_CONFIG_PATH or config/syndicate.yaml)")
	root.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable info logs")

	root.AddCommand(newStrategyCmd(), newMergeCmd(), newCompileCmd(), newServeCmd())
	return root
}

func setup(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log, err := logger.New(cfg.Log.Mode)
	if err != nil {
		return nil, eris.Wrap(err, "init logger")
	}
	if !verbose {
		log = log.Quiet()
	}
	return &app{cfg: cfg, log: log, out: cmd.OutOrStdout()}, nil
}

func (a *app) cdn() images.CDN {
	return images.CDN{
		BaseURL:   a.cfg.CDN.BaseURL,
		ProjectID: a.cfg.CDN.ProjectID,
		Dataset:   a.cfg.CDN.Dataset,
	}
}

func (a *app) printJSON(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newStrategyCmd() *cobra.Command {
	var in string
	cmd := &cobra.Command{
		Use:   "strategy",
		Short: "Extract and validate a strategy from a raw model response",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.log.Sync()

			body, err := readInput(cmd, in)
			if err != nil {
				return err
			}
			st, err := validateStrategy(a.log, body)
			if err != nil {
				return err
			}
			return a.printJSON(st)
		},
	}
	cmd.Flags().StringVar(&in, "in", "-", "model response file, - for stdin")
	return cmd
}

func newMergeCmd() *cobra.Command {
	var previous, research, strategyPath string
	cmd := &cobra.Command{
		Use:   "merge",
		Short: "Merge the previous context, research and strategy into a master context",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.log.Sync()

			prev, err := readInput(cmd, previous)
			if err != nil {
				return err
			}
			var res []byte
			if research != "" {
				if res, err = readInput(cmd, research); err != nil {
					return err
				}
			}
			st, err := optionalStrategy(cmd, a.log, strategyPath)
			if err != nil {
				return err
			}
			return a.printJSON(strategy.NewMerger(a.log).Merge(prev, res, st))
		},
	}
	cmd.Flags().StringVar(&previous, "previous", "", "previous stage context JSON file")
	cmd.Flags().StringVar(&research, "research", "", "research response file")
	cmd.Flags().StringVar(&strategyPath, "strategy", "", "raw strategy response file")
	_ = cmd.MarkFlagRequired("previous")
	return cmd
}

func newCompileCmd() *cobra.Command {
	var page, uploads, strategyPath, writeBack, property string
	cmd := &cobra.Command{
		Use:   "compile",
		Short: "Build every platform payload for one content record",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.log.Sync()

			record, err := readInput(cmd, page)
			if err != nil {
				return err
			}
			var batch []json.RawMessage
			if uploads != "" {
				raw, err := readInput(cmd, uploads)
				if err != nil {
					return err
				}
				if err := json.Unmarshal(raw, &batch); err != nil {
					return eris.Wrap(err, "uploads must be a JSON array")
				}
			}
			st, err := optionalStrategy(cmd, a.log, strategyPath)
			if err != nil {
				return err
			}

			compiler := publisher.NewCompiler(images.NewMapper(a.cdn(), a.log), nil, a.log)
			in, err := compiler.Prepare(record, batch, st)
			if err != nil {
				return err
			}
			results := compiler.Compile(cmd.Context(), in)
			out := map[string]any{
				"masterData": in.Master,
				"images":     in.Images,
				"results":    results,
			}
			if writeBack != "" {
				out["richText"] = compiler.WriteBack(results, publisher.Platform(writeBack), property)
			}
			return a.printJSON(out)
		},
	}
	cmd.Flags().StringVar(&page, "page", "", "content record JSON file")
	cmd.Flags().StringVar(&uploads, "uploads", "", "JSON array of upload results")
	cmd.Flags().StringVar(&strategyPath, "strategy", "", "raw strategy response file")
	cmd.Flags().StringVar(&writeBack, "write-back", "", "platform whose compiled text is written back as rich_text")
	cmd.Flags().StringVar(&property, "property", "Compiled Draft", "rich_text property name for --write-back")
	_ = cmd.MarkFlagRequired("page")
	return cmd
}

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := setup(cmd)
			if err != nil {
				return err
			}
			defer a.log.Sync()

			llm, err := generator.NewLLM(generator.LLMSettings{
				Provider: a.cfg.LLM.Provider,
				Model:    a.cfg.LLM.Model,
				APIKey:   a.cfg.LLM.APIKey,
				BaseURL:  a.cfg.LLM.BaseURL,
			})
			if err != nil {
				return err
			}
			agent, err := generator.NewAgent(llm, a.log)
			if err != nil {
				return err
			}
			m := metrics.New()
			compiler := publisher.NewCompiler(images.NewMapper(a.cdn(), a.log), m, a.log)
			srv, err := server.New(agent, compiler, m, a.log)
			if err != nil {
				return err
			}

			listen := a.cfg.Server.Addr
			if addr != "" {
				listen = addr
			}
			return serve(cmd.Context(), a.log, listen, srv.Routes())
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

func serve(ctx context.Context, log *logger.Logger, addr string, h http.Handler) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() {
		log.Info("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errc <- err
		}
		close(errc)
	}()

	select {
	case err := <-errc:
		if err != nil {
			return eris.Wrapf(err, "listen on %s", addr)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "shutdown")
	}
	log.Info("server stopped")
	return nil
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "read %s", path)
	}
	return data, nil
}

func validateStrategy(log *logger.Logger, body []byte) (*strategy.ContentStrategy, error) {
	doc, err := strategy.ExtractFromEnvelope(body)
	if err != nil {
		return nil, err
	}
	return strategy.NewValidator(log).Validate(doc)
}

func optionalStrategy(cmd *cobra.Command, log *logger.Logger, path string) (*strategy.ContentStrategy, error) {
	if path == "" {
		return nil, nil
	}
	body, err := readInput(cmd, path)
	if err != nil {
		return nil, err
	}
	return validateStrategy(log, body)
}
