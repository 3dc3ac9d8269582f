package main

import (
	"fmt"

	"github.com/thrasher-corp/tallerd/database/repository/workshop"
	"github.com/urfave/cli/v2"
)

var seedWorkshopCommand = &cli.Command{
	Name:  "workshop",
	Usage: "manage workshop directory entries",
	Subcommands: []*cli.Command{
		{
			Name:  "create",
			Usage: "add a workshop to the directory",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Usage:    "unique workshop display name",
					Required: true,
				},
				&cli.StringFlag{
					Name:  "address",
					Usage: "street address",
				},
				&cli.StringFlag{
					Name:  "logo",
					Usage: "logo URL",
				},
				&cli.Int64Flag{
					Name:  "capacity",
					Usage: "simultaneous service bays, defaults to 3",
				},
			},
			Action: workshopCreate,
		},
		{
			Name:  "update-capacity",
			Usage: "change the service bay count of a workshop",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:     "name",
					Usage:    "workshop display name",
					Required: true,
				},
				&cli.Int64Flag{
					Name:     "capacity",
					Usage:    "new service bay count, minimum 1",
					Required: true,
				},
			},
			Action: workshopUpdateCapacity,
		},
		{
			Name:   "list",
			Usage:  "list directory entries",
			Action: workshopList,
		},
	},
}

func workshopCreate(c *cli.Context) error {
	if err := load(c); err != nil {
		return err
	}
	workshopDB, err := workshop.Setup(dbConn)
	if err != nil {
		return err
	}

	w := &workshop.Details{
		Name:     c.String("name"),
		Address:  c.String("address"),
		Logo:     c.String("logo"),
		Capacity: c.Int64("capacity"),
	}
	if err = workshopDB.Insert(w); err != nil {
		return err
	}
	fmt.Printf("Workshop %q created with id %s (capacity %d)\n", w.Name, w.ID, w.Capacity)
	return nil
}

func workshopUpdateCapacity(c *cli.Context) error {
	if err := load(c); err != nil {
		return err
	}
	workshopDB, err := workshop.Setup(dbConn)
	if err != nil {
		return err
	}

	w, err := workshopDB.OneByName(c.String("name"))
	if err != nil {
		return err
	}
	w.Capacity = c.Int64("capacity")
	if err = workshopDB.Update(w); err != nil {
		return err
	}
	fmt.Printf("Workshop %q capacity set to %d\n", w.Name, w.Capacity)
	return nil
}

func workshopList(c *cli.Context) error {
	if err := load(c); err != nil {
		return err
	}
	workshopDB, err := workshop.Setup(dbConn)
	if err != nil {
		return err
	}

	all, err := workshopDB.All()
	if err != nil {
		return err
	}
	for i := range all {
		fmt.Printf("%s\t%s\tcapacity %d\n", all[i].ID, all[i].Name, all[i].Capacity)
	}
	return nil
}
