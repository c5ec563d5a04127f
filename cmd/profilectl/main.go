package main

import (
	"context"

	"github.com/user/profile-crawler/cmd/profilectl/commands"
)

func main() {
	commands.ExecuteContext(context.Background())
}
