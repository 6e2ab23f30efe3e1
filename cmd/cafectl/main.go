// cafectl is a terminal front end for the cafe directory API. It renders
// the client store after each dispatched action. Cookies live only for the
// duration of one invocation, so commands that need a session take the
// credentials as flags and log in first.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/kickylau/DOPE/pkg/client"
)

func main() {
	fs := flag.NewFlagSet("cafectl", flag.ExitOnError)
	baseURL := fs.String("url", envDefault("CAFE_API_URL", "http://localhost:8080"), "API base URL")
	credential := fs.String("credential", "", "username or email to log in with")
	password := fs.String("password", "", "password to log in with")
	fs.Usage = usage(fs)

	if err := fs.Parse(os.Args[1:]); err != nil {
		os.Exit(2)
	}
	args := fs.Args()
	if len(args) == 0 {
		fs.Usage()
		os.Exit(2)
	}

	c, err := client.New(*baseURL)
	if err != nil {
		fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if *credential != "" {
		if _, err := c.Login(ctx, *credential, *password); err != nil {
			fatal(err)
		}
	}

	if err := run(ctx, c, args); err != nil {
		fatal(err)
	}
}

func run(ctx context.Context, c *client.Client, args []string) error {
	switch args[0] {
	case "signup":
		return signup(ctx, c, args[1:])
	case "session":
		user, err := c.Restore(ctx)
		if err != nil {
			return err
		}
		if user == nil {
			fmt.Println("not logged in")
			return nil
		}
		fmt.Printf("logged in as %s <%s> (id %d)\n", user.Username, user.Email, user.ID)
		return nil
	case "logout":
		if err := c.Logout(ctx); err != nil {
			return err
		}
		fmt.Println("logged out")
		return nil
	case "cafes":
		return cafes(ctx, c, args[1:])
	case "reviews":
		return reviews(ctx, c, args[1:])
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func signup(ctx context.Context, c *client.Client, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ExitOnError)
	username := fs.String("username", "", "username")
	email := fs.String("email", "", "email address")
	password := fs.String("new-password", "", "password")
	_ = fs.Parse(args)

	if *username == "" || *email == "" || *password == "" {
		return fmt.Errorf("signup requires -username, -email and -new-password")
	}
	user, err := c.Signup(ctx, *username, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("created user %s (id %d)\n", user.Username, user.ID)
	return nil
}

func cafes(ctx context.Context, c *client.Client, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("cafes: expected list, show, search, create, update or delete")
	}
	switch args[0] {
	case "list":
		if _, err := c.ListCafes(ctx); err != nil {
			return err
		}
		return renderCafes(c.Store().Cafes())
	case "show":
		id, err := idArg(args[1:])
		if err != nil {
			return err
		}
		cafe, err := c.GetCafe(ctx, id)
		if err != nil {
			return err
		}
		fmt.Printf("#%d %s\n%s\n%s, %s %s\nimage: %s\n",
			cafe.ID, cafe.Title, cafe.Description, cafe.Address, cafe.City, cafe.ZipCode, cafe.Img)
		return nil
	case "search":
		if len(args) < 2 {
			return fmt.Errorf("cafes search: expected a query")
		}
		total, found, err := c.SearchCafes(ctx, args[1])
		if err != nil {
			return err
		}
		fmt.Printf("%d matches\n", total)
		byID := make(map[uint]client.Cafe, len(found))
		for _, cafe := range found {
			byID[cafe.ID] = cafe
		}
		return renderCafes(byID)
	case "create", "update":
		fs := flag.NewFlagSet("cafes "+args[0], flag.ExitOnError)
		id := fs.Uint("id", 0, "cafe id (update only)")
		in := client.CafeInput{}
		fs.StringVar(&in.Title, "title", "", "title")
		fs.StringVar(&in.Description, "description", "", "description")
		fs.StringVar(&in.Img, "img", "", "image URL")
		fs.StringVar(&in.Address, "address", "", "street address")
		fs.StringVar(&in.City, "city", "", "city")
		fs.StringVar(&in.ZipCode, "zip", "", "zip code")
		_ = fs.Parse(args[1:])

		if args[0] == "create" {
			if in.Title == "" || in.Description == "" || in.Img == "" || in.Address == "" || in.City == "" || in.ZipCode == "" {
				return fmt.Errorf("cafes create: all fields are required")
			}
			cafe, err := c.CreateCafe(ctx, in)
			if err != nil {
				return err
			}
			fmt.Printf("created cafe #%d %s\n", cafe.ID, cafe.Title)
			return nil
		}
		if *id == 0 {
			return fmt.Errorf("cafes update: -id is required")
		}
		cafe, err := c.UpdateCafe(ctx, uint(*id), in)
		if err != nil {
			return err
		}
		fmt.Printf("updated cafe #%d %s\n", cafe.ID, cafe.Title)
		return nil
	case "delete":
		id, err := idArg(args[1:])
		if err != nil {
			return err
		}
		if err := c.DeleteCafe(ctx, id); err != nil {
			return err
		}
		fmt.Printf("deleted cafe #%d\n", id)
		return nil
	default:
		return fmt.Errorf("cafes: unknown subcommand %q", args[0])
	}
}

func reviews(ctx context.Context, c *client.Client, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("reviews: expected list, add or delete")
	}
	switch args[0] {
	case "list":
		id, err := idArg(args[1:])
		if err != nil {
			return err
		}
		if _, err := c.ListReviews(ctx, id); err != nil {
			return err
		}
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tUSER\tREVIEW")
		for _, r := range c.Store().Reviews(id) {
			fmt.Fprintf(w, "%d\t%d\t%s\n", r.ID, r.UserID, r.Answer)
		}
		return w.Flush()
	case "add":
		fs := flag.NewFlagSet("reviews add", flag.ExitOnError)
		cafeID := fs.Uint("cafe", 0, "cafe id")
		answer := fs.String("answer", "", "review text")
		_ = fs.Parse(args[1:])
		if *cafeID == 0 || *answer == "" {
			return fmt.Errorf("reviews add: -cafe and -answer are required")
		}
		r, err := c.AddReview(ctx, uint(*cafeID), *answer)
		if err != nil {
			return err
		}
		fmt.Printf("added review #%d\n", r.ID)
		return nil
	case "delete":
		id, err := idArg(args[1:])
		if err != nil {
			return err
		}
		if err := c.DeleteReview(ctx, id); err != nil {
			return err
		}
		fmt.Printf("deleted review #%d\n", id)
		return nil
	default:
		return fmt.Errorf("reviews: unknown subcommand %q", args[0])
	}
}

func renderCafes(cafes map[uint]client.Cafe) error {
	ids := make([]uint, 0, len(cafes))
	for id := range cafes {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tCITY\tZIP")
	for _, id := range ids {
		cafe := cafes[id]
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", cafe.ID, cafe.Title, cafe.City, cafe.ZipCode)
	}
	return w.Flush()
}

func idArg(args []string) (uint, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("expected an id argument")
	}
	id, err := strconv.ParseUint(args[0], 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", args[0])
	}
	return uint(id), nil
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func usage(fs *flag.FlagSet) func() {
	return func() {
		fmt.Fprintln(os.Stderr, "usage: cafectl [flags] <command>")
		fmt.Fprintln(os.Stderr, "commands: signup, session, logout,")
		fmt.Fprintln(os.Stderr, "          cafes list|show|search|create|update|delete,")
		fmt.Fprintln(os.Stderr, "          reviews list|add|delete")
		fs.PrintDefaults()
	}
}

func fatal(err error) {
	fmt.Fprintln(os.Stderr, "cafectl:", err)
	os.Exit(1)
}
