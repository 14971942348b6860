package catalog

// Default returns the built-in signal catalog.
func Default() *Catalog {
	return New(
		Signal{
			Code:  107,
			Name:  "Bureau Enquiries",
			Table: "bureau_enquiries",
			File:  "signal_107.csv",
			BaseColumns: []string{
				"Product Type", "Cibil Score", "Region", "Portfolio", "Report Date",
				"Enquiry Product Type", "Report Extract Date", "Assessment Period", "Date Of Event",
			},
			ExtraColumns: []string{"Latest Report Extract Date", "DPD", "Institute", "Loan Type", "Enquiry Date"},
		},
		Signal{
			Code:  412,
			Name:  "Collections",
			Table: "Collections",
			File:  "signal_412.csv",
			BaseColumns: []string{
				"Product Type", "Cibil Score", "Region", "Portfolio", "No Of Attempts Email",
				"No Of Attempts Phone", "Latest Completed Month Year", "Overdue Amount",
				"Max Dpd", "Reported Date", "Date Of Event",
			},
			ExtraColumns: []string{"Assessment Period", "Latest Reported Date"},
		},
		Signal{Code: 601, Name: "Signal 601", Table: "signal_601", File: "signal_601.csv"},
		Signal{
			Code:  733,
			Name:  "Bureau Loans",
			Table: "bureau_loans",
			File:  "signal_733.csv",
			BaseColumns: []string{
				"Product Type", "Cibil Score", "Region", "Portfolio", "Report Date",
				"Max Internal Dpd", "Max External Dpd", "Report Extract Date",
				"Assessment Period", "Date Of Event",
			},
			ExtraColumns: []string{"Latest Report Extract Date", "DPD", "Institute", "Loan Type"},
		},
		Signal{
			Code:  901,
			Name:  "Auditors Report",
			Table: "Auditors_Report",
			File:  "signal_901.csv",
			BaseColumns: []string{
				"Product Type", "Cibil Score", "Region", "Portfolio", "Financial Year",
				"Disclosure Section", "Remarks", "Overdue Amount", "Max Dpd",
				"Reported Date", "Date Of Event",
			},
			ExtraColumns: []string{"Assessment Period", "Latest Reported Date"},
		},
		Signal{Code: 950, Name: "Signal 950", Table: "signal_950", File: "signal_950.csv"},
	)
}
