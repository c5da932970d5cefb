package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/vet1ments/adal"
	"github.com/vet1ments/adal/internal/logger"
)

const (
	clientID = "28f9d61a-8087-4ed9-adfd-bb14d8c91e79"
	resource = "https://graph.microsoft.com"
)

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: adal-demo <id_token>")
		os.Exit(2)
	}

	cfg, err := adal.LoadConfigFromEnv()
	if err != nil {
		panic(err)
	}
	log := logger.New(os.Stdout, cfg.LogLevel)

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	defer cancel()

	info, err := adal.DecodeIDToken(os.Args[1])
	if err != nil {
		fmt.Println(err)
		return
	}

	opts, client := cfg.Options()
	if client != nil {
		defer client.Close()
	}
	cache := adal.NewTokenCache(append(opts, adal.WithLogger(log))...)
	_, err = cache.Add(ctx, &adal.CachedToken{
		ClientID:    clientID,
		Resource:    resource,
		TokenType:   "Bearer",
		AccessToken: "demo-access-token",
		ExpiresOn:   time.Now().Add(time.Hour),
		UserInfo:    info,
	})
	if err != nil {
		fmt.Println(err)
		return
	}

	req := adal.NewTokenRequest(clientID, resource, cache)
	for _, typ := range []adal.IdentifierType{adal.UniqueID, adal.DisplayableID} {
		user, err := info.Identifier(typ)
		if err != nil {
			fmt.Println(err)
			return
		}
		token, err := req.FromCache(ctx, user)
		if err != nil {
			fmt.Println(user, err)
			continue
		}
		fmt.Println(user, user.RequestParams(), token.ID)
	}
}
