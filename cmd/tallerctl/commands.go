package main

import (
	"net/http"
	"net/url"

	"github.com/urfave/cli/v2"
)

var workshopFlag = &cli.StringFlag{
	Name:     "workshop",
	Usage:    "workshop ID",
	Required: true,
}

var createCommand = &cli.Command{
	Name:  "create",
	Usage: "request a new turn",
	Flags: []cli.Flag{
		workshopFlag,
		&cli.StringFlag{
			Name:     "name",
			Usage:    "customer name",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "phone",
			Usage:    "customer phone, 8 to 15 digits",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "model",
			Usage:    "vehicle model",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "plate",
			Usage:    "licence plate",
			Required: true,
		},
		&cli.StringFlag{
			Name:  "problem",
			Usage: "problem description",
		},
	},
	Action: func(c *cli.Context) error {
		return call(c, http.MethodPost,
			"/workshops/"+url.PathEscape(c.String("workshop"))+"/turns",
			map[string]string{
				"nombreCliente":       c.String("name"),
				"telefono":            c.String("phone"),
				"modeloVehiculo":      c.String("model"),
				"patente":             c.String("plate"),
				"descripcionProblema": c.String("problem"),
			},
			false)
	},
}

var statusCommand = &cli.Command{
	Name:  "status",
	Usage: "show the live queue of a workshop",
	Flags: []cli.Flag{workshopFlag},
	Action: func(c *cli.Context) error {
		return call(c, http.MethodGet,
			"/workshops/"+url.PathEscape(c.String("workshop"))+"/status",
			nil, false)
	},
}

var listCommand = &cli.Command{
	Name:  "list",
	Usage: "list a workshop's turns, optionally filtered by plate",
	Flags: []cli.Flag{
		workshopFlag,
		&cli.StringFlag{
			Name:  "plate",
			Usage: "plate substring filter",
		},
	},
	Action: func(c *cli.Context) error {
		path := "/workshops/" + url.PathEscape(c.String("workshop")) + "/turns"
		if plate := c.String("plate"); plate != "" {
			path += "?patente=" + url.QueryEscape(plate)
		}
		return call(c, http.MethodGet, path, nil, true)
	},
}

var finalizeCommand = &cli.Command{
	Name:  "finalize",
	Usage: "complete an in-service turn",
	Flags: []cli.Flag{
		&cli.StringFlag{
			Name:     "turn",
			Usage:    "turn ID",
			Required: true,
		},
	},
	Action: func(c *cli.Context) error {
		return call(c, http.MethodPost,
			"/turns/"+url.PathEscape(c.String("turn"))+"/finalize",
			nil, true)
	},
}

var cancelCommand = &cli.Command{
	Name:  "cancel",
	Usage: "cancel the active turn holding a plate",
	Flags: []cli.Flag{
		workshopFlag,
		&cli.StringFlag{
			Name:     "plate",
			Usage:    "licence plate of the turn to cancel",
			Required: true,
		},
	},
	Action: func(c *cli.Context) error {
		return call(c, http.MethodPost,
			"/workshops/"+url.PathEscape(c.String("workshop"))+"/turns/cancel-by-plate",
			map[string]string{"patente": c.String("plate")},
			false)
	},
}

var workshopsCommand = &cli.Command{
	Name:  "workshops",
	Usage: "list the workshop directory",
	Action: func(c *cli.Context) error {
		return call(c, http.MethodGet, "/workshops", nil, true)
	},
}
