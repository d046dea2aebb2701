// Command bookingctl administers the booking database: schema migration,
// admin accounts and the restaurant/table catalog.
package main

import "github.com/iliyamo/restaurant-booking/cmd/bookingctl/commands"

func main() {
	commands.Execute()
}
