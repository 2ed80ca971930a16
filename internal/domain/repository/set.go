package repository

// Set agrupa los repositorios atados a un mismo Querier (pool o transacción).
type Set struct {
	Companies CompanyRepository
	Plans     PlanRepository
	Branches  BranchRepository
	Users     UserRepository
	Documents DocumentRepository
	Requests  SignatureRequestRepository
}
