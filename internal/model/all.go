package model

// All lists every persisted model in dependency order for auto-migration.
func All() []interface{} {
	return []interface{}{
		&Company{},
		&Client{},
		&ClientDepartment{},
		&Staff{},
		&StaffInternational{},
		&EmploymentType{},
		&JobCategory{},
		&ContractPattern{},
		&ContractTerm{},
		&PaymentSite{},
		&Dropdown{},
		&MinimumPay{},
		&Bank{},
		&BankBranch{},
		&AppUser{},
		&ConnectClient{},
		&ConnectStaff{},
		&ClientContract{},
		&ClientContractHaken{},
		&ClientContractTtp{},
		&StaffContract{},
		&ContractAssignment{},
		&ClientContractPrint{},
		&StaffContractPrint{},
		&ContractAssignmentPrint{},
		&ClientContractNumber{},
		&StaffContractNumber{},
		&StaffContractTeishokubi{},
		&StaffContractTeishokubiDetail{},
		&AppLog{},
	}
}
