package cli

import (
	"context"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/Astemirdum/library-system/library/app"
	"github.com/Astemirdum/library-system/library/config"
	"github.com/Astemirdum/library-system/library/internal/errs"
	"github.com/Astemirdum/library-system/library/internal/model"
	"github.com/Astemirdum/library-system/library/internal/service"
	"github.com/Astemirdum/library-system/pkg/auth"
	"github.com/Astemirdum/library-system/pkg/logger"
	"github.com/Astemirdum/library-system/pkg/validate"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type options struct {
	driver string
	dbPath string
	user   string
	role   string
}

// NewRootCommand builds libctl. Every command runs one library operation
// against the configured store as the user given by --user and --role.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "libctl",
		Short:         "Library circulation and catalog administration",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	pf := root.PersistentFlags()
	pf.StringVar(&opts.driver, "driver", "", "storage driver: sqlite or postgres (default DB_DRIVER)")
	pf.StringVar(&opts.dbPath, "db", "", "sqlite database file (default SQLITE_PATH)")
	pf.StringVarP(&opts.user, "user", "u", "libctl", "session user name")
	pf.StringVarP(&opts.role, "role", "r", "", "session role: NONE, LIBRARIAN, ADMIN or BOTH")

	root.AddCommand(
		newMigrateCommand(opts),
		newMemberCommand(opts),
		newBookCommand(opts),
		newCheckoutCommand(opts),
		newRecordCommand(opts),
	)
	return root
}

func Execute() error {
	return NewRootCommand().Execute()
}

func (o *options) config() (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if o.driver != "" {
		cfg.Database.Driver = o.driver
	}
	if o.dbPath != "" {
		cfg.Database.SQLite.Path = o.dbPath
	}
	if cfg.Log.Sink == "" {
		cfg.Log.Sink = "stderr"
	}
	return cfg, nil
}

type operation func(ctx context.Context, svc *service.Service) (any, error)

// run opens the store, executes op within the flag session and prints the
// result as JSON.
func (o *options) run(cmd *cobra.Command, op operation) error {
	cfg, err := o.config()
	if err != nil {
		return err
	}
	log, err := logger.NewLogger(cfg.Log, "libctl")
	if err != nil {
		return err
	}
	defer log.Sync() //nolint:errcheck

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	db, closer, err := app.OpenDB(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer closer.Close() //nolint:errcheck

	enqueuer, closeEnqueuer, err := app.NewEnqueuer(cfg, log)
	if err != nil {
		return err
	}
	defer closeEnqueuer()

	svc, err := app.NewLibrary(db, enqueuer, log)
	if err != nil {
		return err
	}

	res, err := op(auth.SetAuthContext(ctx, o.user, o.role), svc)
	if err != nil {
		log.Debug("operation failed", zap.String("cmd", cmd.CommandPath()), zap.Error(err))
		return err
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func newMigrateCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := opts.config()
			if err != nil {
				return err
			}
			_, closer, err := app.OpenDB(cmd.Context(), cfg.Database)
			if err != nil {
				return err
			}
			cmd.Println("migrations applied")
			return closer.Close()
		},
	}
}

func newMemberCommand(opts *options) *cobra.Command {
	member := &cobra.Command{Use: "member", Short: "Manage members"}

	var role string
	add := &cobra.Command{
		Use:   "add NAME",
		Short: "Register a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, svc *service.Service) (any, error) {
				return svc.RegisterMember(ctx, args[0], model.Role(role))
			})
		},
	}
	add.Flags().StringVar(&role, "member-role", string(model.RoleNone), "role of the new member")

	member.AddCommand(add)
	return member
}

func newBookCommand(opts *options) *cobra.Command {
	book := &cobra.Command{Use: "book", Short: "Manage the catalog"}

	var req model.CreateBookRequest
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a book with its initial copies",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// same rules as POST /books
			if err := validate.NewCustomValidator().Validate(req); err != nil {
				return errs.Validation(err.Error())
			}
			b := model.Book{ISBN: req.ISBN, Title: req.Title, Author: req.Author, BorrowDuration: req.BorrowDuration}
			b.AddCopies(req.Copies)
			return opts.run(cmd, func(ctx context.Context, svc *service.Service) (any, error) {
				return svc.AddBook(ctx, b)
			})
		},
	}
	f := add.Flags()
	f.StringVar(&req.ISBN, "isbn", "", "isbn")
	f.StringVar(&req.Title, "title", "", "title")
	f.StringVar(&req.Author, "author", "", "author")
	f.IntVar(&req.BorrowDuration, "borrow-days", 14, "loan length in days")
	f.IntVar(&req.Copies, "copies", 1, "initial copies, zero or more")

	get := &cobra.Command{
		Use:   "get ISBN",
		Short: "Show a book with its copies",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, svc *service.Service) (any, error) {
				return svc.GetBook(ctx, args[0])
			})
		},
	}

	addCopies := &cobra.Command{
		Use:   "copies ISBN COUNT",
		Short: "Add copies to a book",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			count, err := strconv.Atoi(args[1])
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, svc *service.Service) (any, error) {
				return svc.AddCopies(ctx, args[0], count)
			})
		},
	}

	overdue := &cobra.Command{
		Use:   "overdue ISBN",
		Short: "List overdue copies of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.run(cmd, func(ctx context.Context, svc *service.Service) (any, error) {
				return svc.OverdueCopies(ctx, args[0])
			})
		},
	}

	book.AddCommand(add, get, addCopies, overdue)
	return book
}

func newCheckoutCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "checkout MEMBER_ID ISBN",
		Short: "Lend a copy of the book to the member",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			memberID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, svc *service.Service) (any, error) {
				return svc.Checkout(ctx, memberID, args[1])
			})
		},
	}
}

func newRecordCommand(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "record MEMBER_ID",
		Short: "Show the checkout record of a member",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			memberID, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return err
			}
			return opts.run(cmd, func(ctx context.Context, svc *service.Service) (any, error) {
				return svc.ViewCheckoutRecord(ctx, memberID)
			})
		},
	}
}
