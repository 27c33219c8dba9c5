package booking

// Fixed sample results served when live search is unavailable.

func demoFlights(q FlightQuery, origin, dest string) FlightResults {
	flight := func(price, airline, dep, arr, dur string, stops int, number string) Flight {
		return Flight{
			Price:            price,
			Airline:          airline,
			DepartureTime:    dep,
			ArrivalTime:      arr,
			DepartureAirport: origin,
			ArrivalAirport:   dest,
			Duration:         dur,
			Stops:            stops,
			FlightNumber:     number,
			TravelClass:      "Economy",
			Type:             TypeDemo,
		}
	}
	return FlightResults{
		Query: q,
		BestFlights: []Flight{
			flight("$450", "Demo Airlines", "10:00", "14:00", "4h 0m", 0, "DA 123"),
			flight("$380", "Budget Air", "14:30", "19:15", "4h 45m", 1, "BA 456"),
			flight("$520", "Comfort Airways", "08:00", "12:30", "4h 30m", 0, "CA 789"),
		},
		OtherFlights: []Flight{},
		Demo:         true,
	}
}

func demoHotels(q HotelQuery) HotelResults {
	return HotelResults{
		Query: q,
		Hotels: []Hotel{
			{
				Name:         "Demo Grand Hotel",
				RatePerNight: "$120",
				TotalRate:    "$360",
				Rating:       4.5,
				Reviews:      1250,
				Amenities:    []string{"WiFi", "Pool", "Breakfast", "Gym"},
				Description:  "Comfortable hotel in city center with modern amenities",
				Type:         TypeDemo,
			},
			{
				Name:         "Budget Inn",
				RatePerNight: "$75",
				TotalRate:    "$225",
				Rating:       4.0,
				Reviews:      850,
				Amenities:    []string{"WiFi", "Parking"},
				Description:  "Affordable option near major attractions",
				Type:         TypeDemo,
			},
			{
				Name:         "Luxury Resort & Spa",
				RatePerNight: "$250",
				TotalRate:    "$750",
				Rating:       4.8,
				Reviews:      2100,
				Amenities:    []string{"WiFi", "Pool", "Spa", "Restaurant", "Beach Access", "Gym"},
				Description:  "Premium beachfront resort with world-class facilities",
				Type:         TypeDemo,
			},
		},
		Demo: true,
	}
}

func demoEvents(q EventQuery) EventResults {
	return EventResults{
		Query: q,
		Events: []Event{
			{
				Title:       "Local Food Festival",
				Description: "Enjoy local cuisine from top restaurants",
				Date:        "2025-11-15",
				Time:        "10:00 AM - 6:00 PM",
				Venue:       "City Park",
				Type:        TypeDemo,
			},
			{
				Title:       "Live Music Concert",
				Description: "Popular bands performing live",
				Date:        "2025-11-20",
				Time:        "7:00 PM",
				Venue:       "Downtown Arena",
				Type:        TypeDemo,
			},
		},
		Demo: true,
	}
}
