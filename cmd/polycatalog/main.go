package main

import (
	"github.com/tansive/polycatalog/internal/cli"
	"github.com/tansive/polycatalog/internal/common/logtrace"
)

func init() {
	logtrace.InitLogger()
}

func main() {
	cli.Execute()
}
