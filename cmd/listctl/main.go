// Command listctl exercises the public surface of the list protocol
// (create, append, inspect, walk) against either a configured DynamoDB
// table or an in-process in-memory gateway, the way the teacher's
// cmd/server wires its storage/query/transaction layers behind one
// consumer-facing binary.
package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/govetachun/pagelist/internal/gateway"
	"github.com/govetachun/pagelist/internal/metrics"
	"github.com/govetachun/pagelist/pkg/list"
)

var (
	flagRegion    string
	flagTable     string
	flagMaxPage   int
	flagLocal     bool
	flagAccessKey string
	flagSecretKey string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "listctl",
		Short: "Inspect and drive a concurrent append-only paginated list",
	}
	root.PersistentFlags().StringVar(&flagRegion, "region", "us-east-1", "KV store region")
	root.PersistentFlags().StringVar(&flagTable, "table", "pagelist", "KV store table name")
	root.PersistentFlags().IntVar(&flagMaxPage, "max-per-page", 50, "maximum elements per page")
	root.PersistentFlags().BoolVar(&flagLocal, "local", true, "use an in-process in-memory gateway instead of a real DynamoDB table")
	root.PersistentFlags().StringVar(&flagAccessKey, "access-key", "", "static AWS access key id (default: fall back to the ambient credential chain)")
	root.PersistentFlags().StringVar(&flagSecretKey, "secret-key", "", "static AWS secret access key (required together with --access-key)")

	root.AddCommand(newCreateCmd(), newAppendCmd(), newCurrentPageCmd(), newRetrieveCmd(), newTailCmd(), newNextCmd())
	return root
}

func buildList(ctx context.Context) (*list.List, error) {
	log, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("build logger: %w", err)
	}
	sugar := log.Sugar()
	metric := metrics.NewNop()

	var gw gateway.Gateway
	if flagLocal {
		gw = gateway.NewMemoryGateway()
	} else {
		awsOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(flagRegion)}
		if flagAccessKey != "" {
			awsOpts = append(awsOpts, awsconfig.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(flagAccessKey, flagSecretKey, ""),
			))
		}
		cfg, err := awsconfig.LoadDefaultConfig(ctx, awsOpts...)
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		gw = gateway.NewDynamoGateway(dynamodb.NewFromConfig(cfg), sugar, metric)
	}

	return list.New(gw,
		list.WithStore(flagRegion, flagTable),
		list.WithMaxElementPerPage(flagMaxPage),
		list.WithLogger(sugar),
		list.WithMetrics(metric),
	)
}

func newCreateCmd() *cobra.Command {
	var metadata string
	cmd := &cobra.Command{
		Use:   "create <list-id>",
		Short: "Idempotently create a list's summary item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := buildList(cmd.Context())
			if err != nil {
				return err
			}
			if metadata == "" {
				metadata = uuid.NewString()
			}
			summary, err := l.IdempotentCreate(cmd.Context(), args[0], metadata)
			if err != nil {
				return err
			}
			fmt.Printf("list=%s currentPage=%d metadata=%s\n", args[0], summary.CurrentPage, summary.Metadata)
			return nil
		},
	}
	cmd.Flags().StringVar(&metadata, "metadata", "", "opaque metadata stamp (default: a random uuid)")
	return cmd
}

func newAppendCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "append <list-id> <value>",
		Short: "Append a value to a list, rolling the page over if full",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := buildList(cmd.Context())
			if err != nil {
				return err
			}
			result, err := l.AtomicAppend(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			fmt.Printf("page_id=%s sequence_id=%d\n", result.PageID, result.SequenceID)
			return nil
		},
	}
	return cmd
}

func newCurrentPageCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "current-page <list-id>",
		Short: "Print a list's tail page number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := buildList(cmd.Context())
			if err != nil {
				return err
			}
			p, err := l.GetCurrentPage(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Println(p)
			return nil
		},
	}
}

func newRetrieveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "retrieve <list-id> <page-id|summary>",
		Short: "Read one page or the summary item",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			l, err := buildList(cmd.Context())
			if err != nil {
				return err
			}
			result, err := l.Retrieve(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if result.Summary != nil {
				fmt.Printf("currentPage=%d metadata=%s\n", result.Summary.CurrentPage, result.Summary.Metadata)
				return nil
			}
			printItems(result.Page.Data)
			return nil
		},
	}
}

func newTailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tail <list-id> <n>",
		Short: "Retrieve the n most recently appended items",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[1])
			if err != nil {
				return fmt.Errorf("n must be an integer: %w", err)
			}
			l, err := buildList(cmd.Context())
			if err != nil {
				return err
			}
			items, err := l.RetrieveLastMostRecent(cmd.Context(), args[0], n)
			if err != nil {
				return err
			}
			printItems(items)
			return nil
		},
	}
}

func newNextCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "next <list-id> <cursor-page-id>:<cursor-sequence-id> <n>",
		Short: "Continue a backward walk from strictly before the given cursor",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			cursor, err := parseCursor(args[1])
			if err != nil {
				return err
			}
			n, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("n must be an integer: %w", err)
			}
			l, err := buildList(cmd.Context())
			if err != nil {
				return err
			}
			items, err := l.RetrieveNextMostRecent(cmd.Context(), args[0], cursor, n)
			if err != nil {
				return err
			}
			printItems(items)
			return nil
		},
	}
}

func parseCursor(s string) (list.Cursor, error) {
	pageID, seqStr, found := strings.Cut(s, ":")
	if !found {
		return list.Cursor{}, fmt.Errorf("cursor must be <page-id>:<sequence-id>, got %q", s)
	}
	seq, err := strconv.Atoi(seqStr)
	if err != nil {
		return list.Cursor{}, fmt.Errorf("cursor sequence_id must be an integer: %w", err)
	}
	return list.Cursor{PageID: pageID, SequenceID: seq}, nil
}

func printItems(items []list.Item) {
	for _, it := range items {
		fmt.Printf("%s@(%s,%d)\n", it.Value, it.PageID, it.SequenceID)
	}
}
