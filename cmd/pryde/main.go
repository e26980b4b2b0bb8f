package main

import (
	"log"

	"github.com/Amatex1/pryde-backend-sub001/internal/app"
)

func main() {
	if err := app.Run(); err != nil {
		log.Fatal(err)
	}
}
