package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lettermail/go-lettermail-server/global"
	"github.com/lettermail/go-lettermail-server/repository"
	"github.com/lettermail/go-lettermail-server/services"
	"github.com/lettermail/go-lettermail-server/types"
)

func init() {
	rootCmd.AddCommand(seedCmd)
}

// seedCmd fills the database with a few demo accounts and emails
var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with demo data",
	Long:  "Creates demo accounts (password: password123) and a handful of emails between them. Intended for local development only.",
	Run: func(cmd *cobra.Command, args []string) {
		err := global.LoadConfig(configFile, &global.Conf)
		check(err)

		db, err := repository.NewDB(global.Conf.Database.DSN)
		check(err)
		defer db.Close()

		ctx := context.Background()
		err = repository.RunMigrations(ctx, db)
		check(err)

		userRepo := repository.NewUserRepository(db)
		emailRepo := repository.NewEmailRepository(db)
		mailService := services.NewMailService(emailRepo, userRepo)
		userService := services.NewUserService(userRepo)

		seedUsers := []types.InputSignup{
			{FullName: "Alice Carter", Email: "alice@example.com", Password: "password123", PasswordConfirm: "password123"},
			{FullName: "Bob Huang", Email: "bob@example.com", Password: "password123", PasswordConfirm: "password123"},
			{FullName: "Carol Novak", Email: "carol@example.com", Password: "password123", PasswordConfirm: "password123"},
		}

		users := make([]*types.User, 0, len(seedUsers))
		for _, input := range seedUsers {
			user, rErr := userService.Register(ctx, &input)
			if rErr != nil {
				fmt.Printf("skipping %s: %v\n", input.Email, rErr)
				existing, gErr := userRepo.GetByEmail(ctx, input.Email)
				check(gErr)
				user = existing
			}
			users = append(users, user)
		}

		seedEmails := []struct {
			from, to int
			subject  string
			body     string
		}{
			{0, 1, "Welcome to Lettermail", "Hi Bob, give the new webmail a spin and tell me what breaks."},
			{1, 0, "Re: Welcome to Lettermail", "Looks good so far. Pagination works, deleting my copy too."},
			{0, 2, "Lunch on Friday?", "Carol, the usual place at noon?"},
			{2, 0, "", "Sounds good, see you there."},
			{1, 2, "Quarterly numbers", "Attached next week, still waiting on finance."},
		}

		for _, seed := range seedEmails {
			input := &types.InputSendEmail{
				RecipientID: users[seed.to].ID,
				Subject:     seed.subject,
				Body:        seed.body,
			}
			_, sErr := mailService.Send(ctx, users[seed.from].ID, input, "", "")
			check(sErr)
		}

		fmt.Printf("seeded %d users and %d emails\n", len(users), len(seedEmails))
	},
}
