package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/samber/lo"
	"github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/dkeye/RoomChat/internal/client"
	"github.com/dkeye/RoomChat/internal/core"
	"github.com/dkeye/RoomChat/internal/domain"
)

// Exit codes for the client application.
const (
	exitOK      = 0
	exitRuntime = 1
	exitConfig  = 2
)

const usage = "usage: client [--name NAME] [--port PORT] <server-address>"

func main() {
	code, err := run()
	if err != nil {
		fmt.Fprintf(os.Stderr, "client error: %v\n", err)
	}
	os.Exit(code)
}

func run() (int, error) {
	name := pflag.StringP("name", "n", "", "screen name, asked for when empty")
	port := pflag.StringP("port", "p", client.DefaultPort, "server port when the address has none")
	level := pflag.String("log-level", "warn", "log level")
	pflag.Parse()

	if pflag.NArg() != 1 {
		return exitConfig, errors.New("pass the server address as the sole argument\n" + usage)
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	if lvl, err := zerolog.ParseLevel(*level); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli, err := client.New(withPort(pflag.Arg(0), *port))
	if err != nil {
		return exitConfig, err
	}
	if err := cli.ResolveDirectory(ctx); err != nil {
		return exitRuntime, fmt.Errorf("no chat directory at %s: %w", cli.Base(), err)
	}

	lines := readLines(os.Stdin)
	term := newTerminal(os.Stdout)

	user, err := login(ctx, cli, *name, lines, term)
	if err != nil {
		return exitRuntime, err
	}
	if err := cli.Connect(ctx); err != nil {
		return exitRuntime, err
	}
	defer func() { _ = cli.Close() }()

	sess := client.NewSession(user, term)
	refresh(ctx, cli, sess, term)
	term.Info("type /help for commands")

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		select {
		case <-cli.Done():
			return cli.Err()
		case <-gctx.Done():
			return nil
		}
	})
	g.Go(func() error {
		defer stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					return nil
				}
				if quit := handleLine(gctx, cli, sess, term, line); quit {
					return nil
				}
			}
		}
	})

	err = g.Wait()
	if _, joined := sess.CurrentRoom(); joined {
		_ = sess.LeaveCurrentRoom()
	}
	if err != nil {
		return exitRuntime, err
	}
	return exitOK, nil
}

func withPort(addr, port string) string {
	if strings.Contains(addr, "://") {
		return addr
	}
	if _, _, err := net.SplitHostPort(addr); err == nil {
		return addr
	}
	return net.JoinHostPort(addr, port)
}

func readLines(f *os.File) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		sc := bufio.NewScanner(f)
		for sc.Scan() {
			out <- sc.Text()
		}
	}()
	return out
}

func login(ctx context.Context, cli *client.Client, raw string, lines <-chan string, term *terminal) (domain.UserName, error) {
	for {
		if raw == "" {
			term.Info("Choose a screen name:")
			line, ok := <-lines
			if !ok {
				return "", errors.New("no screen name given")
			}
			raw = line
		}
		user, err := domain.NewUserName(raw)
		if err == nil {
			err = cli.Login(ctx, user)
		}
		if err == nil {
			return user, nil
		}
		if errors.Is(err, domain.ErrTransport) {
			return "", err
		}
		term.Error(err)
		raw = ""
	}
}

func refresh(ctx context.Context, cli *client.Client, sess *client.Session, term *terminal) {
	infos, err := cli.ListRooms(ctx)
	if err != nil {
		term.Error(err)
		return
	}
	sess.SetRooms(lo.Map(infos, func(i core.RoomInfo, _ int) domain.RoomName { return i.Name }))
}

// handleLine runs one input line and reports whether the user wants out.
func handleLine(ctx context.Context, cli *client.Client, sess *client.Session, term *terminal, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}
	if !strings.HasPrefix(line, "/") {
		if _, ok := sess.CurrentRoom(); !ok {
			term.Error(domain.ErrNotJoined)
		}
		if err := sess.PostMessage(line); err != nil {
			term.Error(err)
		}
		return false
	}

	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	switch cmd {
	case "/quit", "/exit":
		return true
	case "/help":
		term.Info("/list  /create <room>  /join <room>  /leave  /close <room>  /quit, anything else is posted")
	case "/list", "/refresh":
		refresh(ctx, cli, sess, term)
	case "/create":
		name, err := domain.NewRoomName(arg)
		if err == nil {
			err = cli.CreateRoom(ctx, name)
		}
		if err != nil {
			term.Error(err)
		}
		refresh(ctx, cli, sess, term)
	case "/join":
		joinRoom(ctx, cli, sess, term, arg)
	case "/leave":
		if err := sess.LeaveCurrentRoom(); err != nil {
			term.Error(err)
		}
	case "/close":
		name, err := domain.NewRoomName(arg)
		if err == nil {
			err = cli.CloseRoom(ctx, name)
		}
		if err != nil {
			term.Error(err)
		}
	default:
		term.Info("unknown command, try /help")
	}
	return false
}

func joinRoom(ctx context.Context, cli *client.Client, sess *client.Session, term *terminal, arg string) {
	name, err := domain.NewRoomName(arg)
	if err != nil {
		term.Error(err)
		return
	}
	room, err := cli.ResolveRoom(ctx, name)
	if err == nil {
		err = sess.JoinRoom(room)
	}
	if err == nil {
		return
	}
	term.Error(err)
	if errors.Is(err, domain.ErrNameResolution) || errors.Is(err, domain.ErrRoomClosed) {
		refresh(ctx, cli, sess, term)
	}
}
