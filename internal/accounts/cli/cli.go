// Package cli implements accountctl, the operator tool for reviewing
// registrations without going through the HTTP API.
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/aussiebroadwan/eventpass/internal/accounts/domain"
	"github.com/aussiebroadwan/eventpass/internal/accounts/service"
	"golang.org/x/term"
)

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

var ErrUsage = errors.New("usage")

const usage = `usage: accountctl <command> [arguments]

commands:
  pending [-limit n]                 list registrations awaiting review
  list -status s [-limit n]          list accounts by payment status
  approve <email>                    approve a pending registration
  reject <email>                     reject a pending registration
  promote <email>                    grant the admin role
  demote <email>                     revoke the admin role
  create-admin [flags] <email>       create an approved admin account
`

// Runner dispatches accountctl commands against the account service.
type Runner struct {
	Accounts *service.AccountService
	Out      io.Writer
	Err      io.Writer
}

// Run executes the command named by args[0].
func (r *Runner) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		fmt.Fprint(r.Err, usage)
		return ErrUsage
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "pending":
		return r.list(ctx, cmd, rest, domain.PaymentPending)
	case "list":
		return r.list(ctx, cmd, rest, "")
	case "approve":
		return r.review(ctx, rest, domain.DecisionApprove)
	case "reject":
		return r.review(ctx, rest, domain.DecisionReject)
	case "promote":
		return r.setRole(ctx, rest, domain.RoleAdmin)
	case "demote":
		return r.setRole(ctx, rest, domain.RoleUser)
	case "create-admin":
		return r.createAdmin(ctx, rest)
	case "help", "-h", "--help":
		fmt.Fprint(r.Out, usage)
		return nil
	default:
		fmt.Fprintf(r.Err, "unknown command %q\n\n%s", cmd, usage)
		return ErrUsage
	}
}

func (r *Runner) flags(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(r.Err)
	return fs
}

func (r *Runner) list(ctx context.Context, name string, args []string, status domain.PaymentStatus) error {
	fs := r.flags(name)
	limit := fs.Int("limit", 0, "maximum number of accounts (0 for all)")
	statusFlag := fs.String("status", string(status), "pending, approved or rejected")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	accounts, err := r.Accounts.ListByStatus(ctx, domain.PaymentStatus(*statusFlag), *limit)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(r.Out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tEMAIL\tNAME\tSTATE\tPAYMENT ID\tROLE\tREGISTERED")
	for _, a := range accounts {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			a.ID, a.Email, a.FullName, a.State, a.PaymentID, a.Role,
			a.CreatedAt.Local().Format(time.DateTime),
		)
	}
	return tw.Flush()
}

func (r *Runner) lookup(ctx context.Context, args []string) (domain.Account, error) {
	if len(args) != 1 || args[0] == "" {
		fmt.Fprint(r.Err, usage)
		return domain.Account{}, ErrUsage
	}
	return r.Accounts.GetAccountByEmail(ctx, args[0])
}

func (r *Runner) review(ctx context.Context, args []string, decision domain.ReviewDecision) error {
	a, err := r.lookup(ctx, args)
	if err != nil {
		return err
	}

	reviewed, err := r.Accounts.Review(ctx, a.ID, decision)
	if err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "%s: payment %s, approved=%t\n", reviewed.Email, reviewed.PaymentStatus, reviewed.IsApproved)
	return nil
}

func (r *Runner) setRole(ctx context.Context, args []string, role domain.Role) error {
	a, err := r.lookup(ctx, args)
	if err != nil {
		return err
	}

	if err := r.Accounts.SetRole(ctx, a.ID, role); err != nil {
		return err
	}
	fmt.Fprintf(r.Out, "%s: role %s\n", a.Email, role)
	return nil
}

// createAdmin registers an account, approves it and grants the admin role.
// The password is read from the terminal so it never appears in argv.
func (r *Runner) createAdmin(ctx context.Context, args []string) error {
	fs := r.flags("create-admin")
	name := fs.String("name", "Administrator", "full name")
	state := fs.String("state", "N/A", "state")
	address := fs.String("address", "N/A", "address")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if fs.NArg() != 1 {
		fmt.Fprint(r.Err, usage)
		return ErrUsage
	}
	email := fs.Arg(0)

	fmt.Fprint(r.Err, "Enter password: ")
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(r.Err)
	if err != nil {
		return fmt.Errorf("read password: %w", err)
	}
	defer clear(pw)

	a, err := r.Accounts.Register(ctx, service.RegisterInput{
		Email:    email,
		Password: string(pw),
		FullName: *name,
		State:    *state,
		Address:  *address,
	})
	if errors.Is(err, service.ErrAccountExists) {
		return fmt.Errorf("%w: use promote and approve for existing accounts", err)
	}
	if err != nil {
		return err
	}
	if _, err := r.Accounts.GrantAdmin(ctx, a.ID); err != nil {
		return fmt.Errorf("account %s was created pending, finish with promote and approve: %w", a.Email, err)
	}

	fmt.Fprintf(r.Out, "%s: created admin %s\n", a.Email, a.ID)
	return nil
}
