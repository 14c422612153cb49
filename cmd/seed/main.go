// Command seed installs a demo community with a few members and prints
// a development JWT for each of them, ready to paste into a client.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/gookit/color"
	"github.com/olekukonko/tablewriter"

	"fitstake/auth"
	"fitstake/domain"
	"fitstake/observability"
	"fitstake/repositories"
)

func main() {
	dbPath := flag.String("db", "./data/badger", "Path to badger DB")
	secret := flag.String("secret", "", "JWT secret, must match the server's JWT_SECRET")
	communityID := flag.String("community", "demo", "Community id to create")
	members := flag.Int("members", 3, "Number of demo members")
	flag.Parse()

	if *secret == "" {
		log.Fatal("Missing -secret (must match the server's JWT_SECRET)")
	}

	db, err := badger.Open(badger.DefaultOptions(*dbPath).WithLoggingLevel(badger.ERROR))
	if err != nil {
		log.Fatal("Error while opening Badger: ", err)
	}
	defer db.Close()

	logger := observability.NewLogger("warn")
	communities := repositories.NewCommunityRepository(db, logger)
	tokens := auth.NewTokenManager(*secret, "fitstake", 24*time.Hour)

	memberIDs := make([]string, 0, *members)
	for i := 1; i <= *members; i++ {
		memberIDs = append(memberIDs, fmt.Sprintf("u%d", i))
	}

	community := domain.Community{
		ID:        *communityID,
		Name:      fmt.Sprintf("%s community", *communityID),
		MemberIDs: memberIDs,
	}
	if err := communities.Put(community); err != nil {
		log.Fatal("Error while seeding community: ", err)
	}

	color.Green.Printf("Community %q seeded with %d members\n\n", community.ID, len(memberIDs))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"User", "Token"})
	table.SetAutoWrapText(false)
	table.SetBorder(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)

	for _, userID := range memberIDs {
		token, err := tokens.Generate(userID)
		if err != nil {
			log.Fatal("Error while minting token: ", err)
		}
		table.Append([]string{userID, token})
	}
	table.Render()

	color.Yellow.Println("\nTokens are valid for 24h. Connect with: /ws?token=<token>")
}
