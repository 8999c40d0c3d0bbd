package catalog

// Built-in reference data. Amounts are minor units.

var operators = []Operator{
	{ID: "1", Name: "Airtel", Code: "AIRTEL", Type: TypePrepaid},
	{ID: "2", Name: "Jio", Code: "JIO", Type: TypePrepaid},
	{ID: "3", Name: "Vi", Code: "VI", Type: TypePrepaid},
	{ID: "4", Name: "BSNL", Code: "BSNL", Type: TypePrepaid},
	{ID: "5", Name: "Airtel Postpaid", Code: "AIRTEL_POST", Type: TypePostpaid},
	{ID: "6", Name: "Jio Postpaid", Code: "JIO_POST", Type: TypePostpaid},
	{ID: "7", Name: "Tata Play", Code: "TATAPLAY", Type: TypeDTH},
	{ID: "8", Name: "Airtel DTH", Code: "AIRTEL_DTH", Type: TypeDTH},
	{ID: "9", Name: "Dish TV", Code: "DISH", Type: TypeDTH},
	{ID: "10", Name: "Videocon D2H", Code: "D2H", Type: TypeDTH},
}

var circles = []Circle{
	{ID: "1", Name: "Delhi NCR", Code: "DL"},
	{ID: "2", Name: "Mumbai", Code: "MH"},
	{ID: "3", Name: "Karnataka", Code: "KA"},
	{ID: "4", Name: "Tamil Nadu", Code: "TN"},
	{ID: "5", Name: "Andhra Pradesh", Code: "AP"},
	{ID: "6", Name: "Gujarat", Code: "GJ"},
	{ID: "7", Name: "West Bengal", Code: "WB"},
	{ID: "8", Name: "Uttar Pradesh East", Code: "UPE"},
	{ID: "9", Name: "Uttar Pradesh West", Code: "UPW"},
}

var plans = []Plan{
	{ID: "1", OperatorID: "1", Amount: 19900, Validity: "28 days", Description: "Unlimited calls + 1.5GB/day", Data: "1.5GB/day", Category: "unlimited"},
	{ID: "2", OperatorID: "1", Amount: 29900, Validity: "28 days", Description: "Unlimited calls + 2GB/day", Data: "2GB/day", Category: "unlimited"},
	{ID: "3", OperatorID: "1", Amount: 44900, Validity: "56 days", Description: "Unlimited calls + 2GB/day", Data: "2GB/day", Category: "unlimited"},
	{ID: "4", OperatorID: "1", Amount: 4900, Validity: "3 days", Description: "100 mins + 500MB data", Data: "500MB", Talktime: "100 mins", Category: "combo"},
	{ID: "5", OperatorID: "1", Amount: 9900, Validity: "14 days", Description: "Data pack - 6GB", Data: "6GB", Category: "data"},
	{ID: "6", OperatorID: "2", Amount: 19900, Validity: "28 days", Description: "Unlimited calls + 1.5GB/day", Data: "1.5GB/day", Category: "unlimited"},
	{ID: "7", OperatorID: "2", Amount: 23900, Validity: "28 days", Description: "Unlimited calls + 2GB/day", Data: "2GB/day", Category: "unlimited"},
	{ID: "8", OperatorID: "2", Amount: 66600, Validity: "84 days", Description: "Unlimited calls + 2GB/day", Data: "2GB/day", Category: "unlimited"},
	{ID: "9", OperatorID: "7", Amount: 19900, Validity: "30 days", Description: "HD Pack - 200+ Channels", Category: "combo"},
	{ID: "10", OperatorID: "7", Amount: 34900, Validity: "30 days", Description: "Premium HD Pack - 300+ Channels", Category: "unlimited"},
	{ID: "11", OperatorID: "8", Amount: 24900, Validity: "30 days", Description: "Value Pack - 150+ Channels", Category: "combo"},
	{ID: "12", OperatorID: "9", Amount: 17500, Validity: "30 days", Description: "Basic Pack - 100+ Channels", Category: "topup"},
}
