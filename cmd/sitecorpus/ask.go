package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/sitecorpus/internal/app"
)

func runAsk(ctx context.Context, a *app.App, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: sitecorpus ask <website-ref> <question>")
	}
	websiteRef := args[0]
	question := strings.Join(args[1:], " ")

	result, err := a.Facade.Ask(ctx, question, websiteRef)
	if err != nil {
		return err
	}

	fmt.Println(result.Answer)
	if len(result.Citations) > 0 {
		fmt.Println("\nsources:")
		for _, c := range result.Citations {
			fmt.Printf("  - %s\n", c.URL)
		}
	}
	return nil
}
