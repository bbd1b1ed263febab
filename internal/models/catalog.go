package models

// Categories are the fixed report categories offered to citizens.
var Categories = []string{
	"Roads",
	"Water Supply",
	"Electricity",
	"Waste Management",
	"Public Safety",
	"Parks & Recreation",
	"Transportation",
	"Healthcare",
	"Education",
	"Other",
}

// Departments are the municipal units a report can be routed to.
var Departments = []string{
	"Public Works",
	"Electrical Services",
	"Parks and Recreation",
	"Water Department",
	"Code Enforcement",
	"Traffic Management",
}

// Districts are matched as substrings of a report's address.
var Districts = []string{
	"Chennai",
	"Mumbai",
	"Delhi",
	"Bangalore",
	"Kolkata",
	"Hyderabad",
	"Pune",
	"Ahmedabad",
	"Jaipur",
	"Surat",
}

func IsCategory(s string) bool {
	return contains(Categories, s)
}

func IsDepartment(s string) bool {
	return contains(Departments, s)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
