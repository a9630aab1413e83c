// Command bpctl inspects and drives a player's battle pass from the shell.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/cardastika/battlepass/internal/battlepass"
	"github.com/cardastika/battlepass/internal/catalog"
	"github.com/cardastika/battlepass/internal/config"
	"github.com/cardastika/battlepass/internal/profile"
	"github.com/cardastika/battlepass/internal/wallet"
)

const usage = `usage: bpctl [flags] <command> [args]

commands:
  status                      season, progress and every reward slot
  claim <free|vip> <tier>     claim one reward
  claim-all                   claim every ready reward
  buy-vip [-yes]              unlock the VIP track
  exchange <diamonds>         trade diamonds for progress
  sync                        fold newly earned diamonds into progress
  wallet                      show balances
  items                       show the magic-item ledger
  grant <currency> <amount>   add silver, gold or diamonds (testing)
  account create <name>       create an account
  account use <name>          switch the active account
  account list                list accounts
  watch                       keep syncing until interrupted

flags:
`

func main() {
	configPath := flag.String("config", "config.yaml", "Path to config file")
	envPath := flag.String("env", ".env", "Path to dotenv file")
	dataDir := flag.String("data", "", "Override profile directory")
	locale := flag.String("locale", "", "Override number locale")
	flag.Usage = func() {
		fmt.Fprint(flag.CommandLine.Output(), usage)
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.LoadOrDefault(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	cfg.ApplyEnv(config.Environ(*envPath))
	if *dataDir != "" {
		cfg.DataDir = *dataDir
	}
	if *locale != "" {
		cfg.Locale = *locale
	}

	var notifier battlepass.Notifier
	if flag.Arg(0) == "watch" {
		notifier = hud{}
	}
	p, err := profile.Open(cfg, notifier)
	if err != nil {
		log.Fatalf("Failed to open profile: %v", err)
	}

	c := &cli{p: p, out: os.Stdout, in: os.Stdin}
	if err := c.run(flag.Arg(0), flag.Args()[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "bpctl: %v\n", err)
		os.Exit(1)
	}
}

type cli struct {
	p   *profile.Profile
	out io.Writer
	in  io.Reader
}

var errUsage = errors.New("bad arguments, see bpctl -h")

func (c *cli) run(cmd string, args []string) error {
	switch cmd {
	case "status":
		c.printStatus()
		return nil
	case "claim":
		return c.claim(args)
	case "claim-all":
		return c.claimAll()
	case "buy-vip":
		return c.buyVIP(args)
	case "exchange":
		return c.exchange(args)
	case "sync":
		return c.sync()
	case "wallet":
		c.printWallet()
		return nil
	case "items":
		c.printItems()
		return nil
	case "grant":
		return c.grant(args)
	case "account":
		return c.account(args)
	case "watch":
		return c.watch()
	}
	return fmt.Errorf("unknown command %q", cmd)
}

func (c *cli) printf(format string, a ...any) {
	fmt.Fprintf(c.out, format, a...)
}

func (c *cli) printStatus() {
	v := c.p.Ledger.View()
	f := c.p.Format

	c.printf("Battle pass  cycle %d/%d  ", v.Cycle, v.MaxCycle)
	if v.SeasonEnded {
		c.printf("%s\n", v.Countdown)
	} else {
		c.printf("ends in %s\n", v.Countdown)
	}
	c.printf("Progress     %d/%d (%d%%)", v.Progress, v.MaxProgress, v.Percent)
	if v.NextTier > 0 {
		c.printf(", next tier %d in %d", v.NextTier, v.NeedForNext)
	}
	c.printf("\n")
	switch {
	case v.VIP:
		c.printf("VIP          active\n")
	case v.CanBuyVIP:
		c.printf("VIP          available for %s diamonds\n", f.Number(v.VIPPrice))
	default:
		c.printf("VIP          %s diamonds\n", f.Number(v.VIPPrice))
	}
	c.printf("Wallet       %s silver, %s gold, %s diamonds\n\n",
		f.Number(v.Wallet.Silver), f.Number(v.Wallet.Gold), f.Number(v.Wallet.Diamonds))

	c.printf("%5s  %-30s %s\n", "TIER", "FREE", "VIP")
	for _, row := range v.Tiers {
		c.printf("%5d  %-30s %s\n", row.Tier, slotText(row.Free), slotText(row.VIP))
	}
	if len(v.Offers) > 0 {
		var parts []string
		for _, o := range v.Offers {
			s := strconv.Itoa(o.Cost)
			if !o.Enabled {
				s = "(" + s + ")"
			}
			parts = append(parts, s)
		}
		c.printf("\nExchange offers: %s\n", strings.Join(parts, " "))
	}
	if v.Claimable > 0 {
		c.printf("%d rewards ready to claim\n", v.Claimable)
	}
}

func slotText(s *battlepass.Slot) string {
	if s == nil {
		return "-"
	}
	return fmt.Sprintf("[%s] %s", s.Status, s.Preview)
}

func (c *cli) claim(args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	track := catalog.Track(strings.ToLower(args[0]))
	tier, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Errorf("tier %q: %w", args[1], errUsage)
	}
	g, err := c.p.Ledger.Claim(tier, track)
	if err != nil {
		return err
	}
	c.printf("Claimed %s\n", g)
	return nil
}

func (c *cli) claimAll() error {
	grants, err := c.p.Ledger.ClaimAll()
	for _, g := range grants {
		c.printf("Claimed tier %d %s\n", g.Tier, g)
	}
	return err
}

func (c *cli) buyVIP(args []string) error {
	fs := flag.NewFlagSet("buy-vip", flag.ContinueOnError)
	yes := fs.Bool("yes", false, "Skip the confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return err
	}

	confirm := c.askYesNo
	if *yes {
		confirm = battlepass.AutoConfirm
	}
	if err := c.p.Ledger.BuyVIP(confirm); err != nil {
		return err
	}
	c.printf("VIP unlocked\n")
	return nil
}

func (c *cli) askYesNo(prompt string) bool {
	c.printf("%s [y/N] ", prompt)
	line, _ := bufio.NewReader(c.in).ReadString('\n')
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func (c *cli) exchange(args []string) error {
	if len(args) != 1 {
		return errUsage
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("amount %q: %w", args[0], errUsage)
	}
	gained, err := c.p.Ledger.Exchange(n)
	if err != nil {
		return err
	}
	c.printf("Spent %d diamonds, +%d progress (now %d)\n", n, gained, c.p.Ledger.State().Progress)
	return nil
}

func (c *cli) sync() error {
	res, err := c.p.Ledger.Sync()
	if err != nil {
		return err
	}
	if res.RolledOver {
		c.printf("Season ended, a new season has started\n")
	}
	c.printf("+%d progress (now %d)\n", res.Gained, c.p.Ledger.State().Progress)
	return nil
}

func (c *cli) printWallet() {
	b := c.p.Wallet.Read()
	f := c.p.Format
	if name := c.p.ActiveName(); name != "" {
		c.printf("Account   %s\n", name)
	}
	c.printf("Silver    %s\nGold      %s\nDiamonds  %s\n", f.Number(b.Silver), f.Number(b.Gold), f.Number(b.Diamonds))
}

func (c *cli) printItems() {
	all := c.p.Items.All()
	if len(all) == 0 {
		c.printf("No magic items yet\n")
		return
	}
	for _, it := range all {
		c.printf("%-24s ×%d  (%s)\n", it.Name, it.Count, it.ID)
	}
	c.printf("%d items owned\n", c.p.Items.Owned())
}

func (c *cli) grant(args []string) error {
	if len(args) != 2 {
		return errUsage
	}
	n, err := strconv.Atoi(args[1])
	if err != nil || n <= 0 {
		return fmt.Errorf("amount %q: %w", args[1], errUsage)
	}
	b, err := c.p.Wallet.Read().Add(wallet.Currency(strings.ToLower(args[0])), n)
	if err != nil {
		return err
	}
	if err := c.p.Wallet.Write(b); err != nil {
		return err
	}
	c.printWallet()
	return nil
}

func (c *cli) account(args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	switch args[0] {
	case "create":
		if len(args) != 2 {
			return errUsage
		}
		acc, err := c.p.Accounts.Create(args[1], wallet.Balances{})
		if err != nil {
			return err
		}
		c.printf("Created %s (%s)\n", acc.Name, acc.ID)
	case "use":
		if len(args) != 2 {
			return errUsage
		}
		acc, err := c.p.SwitchAccount(args[1])
		if err != nil {
			return err
		}
		c.printf("Active account: %s\n", acc.Name)
	case "list":
		active := c.p.ActiveName()
		for _, acc := range c.p.Accounts.List() {
			mark := " "
			if acc.Name == active {
				mark = "*"
			}
			c.printf("%s %-20s %s diamonds\n", mark, acc.Name, c.p.Format.Number(acc.Diamonds))
		}
	default:
		return errUsage
	}
	return nil
}

func (c *cli) watch() error {
	poller, err := c.p.NewPoller()
	if err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log.Printf("Watching %s (sync every %s)", c.p.Store.Path(), c.p.Config.SyncInterval)
	if err := poller.Run(ctx); err != nil {
		return err
	}
	log.Println("Shutting down...")
	return nil
}

// hud logs wallet and progress changes while watching, standing in for the
// page header counters.
type hud struct{}

func (hud) NotifyWalletChanged(b wallet.Balances) {
	log.Printf("[hud] silver %d  gold %d  diamonds %d", b.Silver, b.Gold, b.Diamonds)
}

func (hud) NotifyStateChanged(v battlepass.View) {
	log.Printf("[hud] progress %d/%d (%d%%), %d to claim, %s left", v.Progress, v.MaxProgress, v.Percent, v.Claimable, v.Countdown)
}
