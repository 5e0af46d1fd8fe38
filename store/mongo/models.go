package mongo

import (
	"time"

	"github.com/shopspring/decimal"
	"github.com/xraph/grove"

	"github.com/xraph/accrual/customer"
	"github.com/xraph/accrual/id"
	"github.com/xraph/accrual/invoice"
	"github.com/xraph/accrual/period"
	"github.com/xraph/accrual/plan"
	"github.com/xraph/accrual/resource"
	"github.com/xraph/accrual/types"
	"github.com/xraph/accrual/usage"
)

// Decimal fields are stored as their canonical string form; BSON doubles
// would silently lose precision on money amounts.

func parseDecimal(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

// ==================== Customer models ====================

type customerModel struct {
	grove.BaseModel `grove:"table:accrual_customers"`

	ID         string            `grove:"id,pk"       bson:"_id"`
	Name       string            `grove:"name"        bson:"name"`
	Currency   string            `grove:"currency"    bson:"currency"`
	TaxPercent string            `grove:"tax_percent" bson:"tax_percent"`
	Metadata   map[string]string `grove:"metadata"    bson:"metadata,omitempty"`
	CreatedAt  time.Time         `grove:"created_at"  bson:"created_at"`
	UpdatedAt  time.Time         `grove:"updated_at"  bson:"updated_at"`
}

func toCustomerModel(c *customer.Customer) *customerModel {
	return &customerModel{
		ID:         c.ID.String(),
		Name:       c.Name,
		Currency:   c.Currency,
		TaxPercent: c.TaxPercent.String(),
		Metadata:   c.Metadata,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func fromCustomerModel(m *customerModel) (*customer.Customer, error) {
	customerID, err := id.ParseCustomerID(m.ID)
	if err != nil {
		return nil, err
	}
	taxPercent, err := parseDecimal(m.TaxPercent)
	if err != nil {
		return nil, err
	}

	return &customer.Customer{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:         customerID,
		Name:       m.Name,
		Currency:   m.Currency,
		TaxPercent: taxPercent,
		Metadata:   m.Metadata,
	}, nil
}

// ==================== Plan models ====================

type planModel struct {
	grove.BaseModel `grove:"table:accrual_plans"`

	ID         string               `grove:"id,pk"       bson:"_id"`
	OfferingID string               `grove:"offering_id" bson:"offering_id"`
	Name       string               `grove:"name"        bson:"name"`
	Currency   string               `grove:"currency"    bson:"currency"`
	Unit       string               `grove:"unit"        bson:"unit"`
	Status     string               `grove:"status"      bson:"status"`
	Components []planComponentModel `grove:"components"  bson:"components"`
	Metadata   map[string]string    `grove:"metadata"    bson:"metadata,omitempty"`
	CreatedAt  time.Time            `grove:"created_at"  bson:"created_at"`
	UpdatedAt  time.Time            `grove:"updated_at"  bson:"updated_at"`
}

type planComponentModel struct {
	ID            string `bson:"id"`
	PlanID        string `bson:"plan_id"`
	ComponentType string `bson:"component_type"`
	Price         string `bson:"price"`
	Currency      string `bson:"currency"`
	Amount        int64  `bson:"amount"`
}

func toPlanModel(p *plan.Plan) *planModel {
	components := make([]planComponentModel, len(p.Components))
	for i, pc := range p.Components {
		components[i] = planComponentModel{
			ID:            pc.ID.String(),
			PlanID:        pc.PlanID.String(),
			ComponentType: pc.ComponentType,
			Price:         pc.Price.Amount.String(),
			Currency:      pc.Price.Currency,
			Amount:        pc.Amount,
		}
	}

	return &planModel{
		ID:         p.ID.String(),
		OfferingID: p.OfferingID.String(),
		Name:       p.Name,
		Currency:   p.Currency,
		Unit:       string(p.Unit),
		Status:     string(p.Status),
		Components: components,
		Metadata:   p.Metadata,
		CreatedAt:  p.CreatedAt,
		UpdatedAt:  p.UpdatedAt,
	}
}

func fromPlanModel(m *planModel) (*plan.Plan, error) {
	planID, err := id.ParsePlanID(m.ID)
	if err != nil {
		return nil, err
	}
	offeringID, err := id.ParseOfferingID(m.OfferingID)
	if err != nil {
		return nil, err
	}

	components := make([]plan.PlanComponent, len(m.Components))
	for i, pcm := range m.Components {
		pcID, err := id.ParsePlanComponentID(pcm.ID)
		if err != nil {
			return nil, err
		}
		price, err := parseDecimal(pcm.Price)
		if err != nil {
			return nil, err
		}
		components[i] = plan.PlanComponent{
			ID:            pcID,
			PlanID:        planID,
			ComponentType: pcm.ComponentType,
			Price:         types.Money{Amount: price, Currency: pcm.Currency},
			Amount:        pcm.Amount,
		}
	}

	return &plan.Plan{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:         planID,
		OfferingID: offeringID,
		Name:       m.Name,
		Currency:   m.Currency,
		Unit:       plan.Unit(m.Unit),
		Status:     plan.Status(m.Status),
		Components: components,
		Metadata:   m.Metadata,
	}, nil
}

// ==================== Component models ====================

type componentModel struct {
	grove.BaseModel `grove:"table:accrual_components"`

	ID           string            `grove:"id,pk"         bson:"_id"`
	OfferingID   string            `grove:"offering_id"   bson:"offering_id"`
	Type         string            `grove:"type"          bson:"type"`
	Name         string            `grove:"name"          bson:"name"`
	MeasuredUnit string            `grove:"measured_unit" bson:"measured_unit"`
	BillingType  string            `grove:"billing_type"  bson:"billing_type"`
	Factor       int64             `grove:"factor"        bson:"factor"`
	Metadata     map[string]string `grove:"metadata"      bson:"metadata,omitempty"`
	CreatedAt    time.Time         `grove:"created_at"    bson:"created_at"`
	UpdatedAt    time.Time         `grove:"updated_at"    bson:"updated_at"`
}

func toComponentModel(c *plan.Component) *componentModel {
	return &componentModel{
		ID:           c.ID.String(),
		OfferingID:   c.OfferingID.String(),
		Type:         c.Type,
		Name:         c.Name,
		MeasuredUnit: c.MeasuredUnit,
		BillingType:  string(c.BillingType),
		Factor:       c.Factor,
		Metadata:     c.Metadata,
		CreatedAt:    c.CreatedAt,
		UpdatedAt:    c.UpdatedAt,
	}
}

func fromComponentModel(m *componentModel) (*plan.Component, error) {
	componentID, err := id.ParseComponentID(m.ID)
	if err != nil {
		return nil, err
	}
	offeringID, err := id.ParseOfferingID(m.OfferingID)
	if err != nil {
		return nil, err
	}

	return &plan.Component{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:           componentID,
		OfferingID:   offeringID,
		Type:         m.Type,
		Name:         m.Name,
		MeasuredUnit: m.MeasuredUnit,
		BillingType:  plan.BillingType(m.BillingType),
		Factor:       m.Factor,
		Metadata:     m.Metadata,
	}, nil
}

// ==================== Resource models ====================

type resourceModel struct {
	grove.BaseModel `grove:"table:accrual_resources"`

	ID          string            `grove:"id,pk"        bson:"_id"`
	CustomerID  string            `grove:"customer_id"  bson:"customer_id"`
	OfferingID  string            `grove:"offering_id"  bson:"offering_id"`
	PlanID      string            `grove:"plan_id"      bson:"plan_id"`
	Name        string            `grove:"name"         bson:"name"`
	State       string            `grove:"state"        bson:"state"`
	Limits      map[string]int64  `grove:"limits"       bson:"limits,omitempty"`
	ProjectID   string            `grove:"project_id"   bson:"project_id"`
	ProjectName string            `grove:"project_name" bson:"project_name"`
	Metadata    map[string]string `grove:"metadata"     bson:"metadata,omitempty"`
	CreatedAt   time.Time         `grove:"created_at"   bson:"created_at"`
	UpdatedAt   time.Time         `grove:"updated_at"   bson:"updated_at"`
}

func toResourceModel(r *resource.Resource) *resourceModel {
	return &resourceModel{
		ID:          r.ID.String(),
		CustomerID:  r.CustomerID.String(),
		OfferingID:  r.OfferingID.String(),
		PlanID:      r.PlanID.String(),
		Name:        r.Name,
		State:       string(r.State),
		Limits:      r.Limits,
		ProjectID:   r.ProjectID.String(),
		ProjectName: r.ProjectName,
		Metadata:    r.Metadata,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

func fromResourceModel(m *resourceModel) (*resource.Resource, error) {
	resourceID, err := id.ParseResourceID(m.ID)
	if err != nil {
		return nil, err
	}
	customerID, err := id.ParseCustomerID(m.CustomerID)
	if err != nil {
		return nil, err
	}
	offeringID, err := id.ParseOfferingID(m.OfferingID)
	if err != nil {
		return nil, err
	}
	planID, err := id.ParsePlanID(m.PlanID)
	if err != nil {
		return nil, err
	}

	var projectID id.ProjectID
	if m.ProjectID != "" {
		projectID, err = id.ParseProjectID(m.ProjectID)
		if err != nil {
			return nil, err
		}
	}

	return &resource.Resource{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:          resourceID,
		CustomerID:  customerID,
		OfferingID:  offeringID,
		PlanID:      planID,
		Name:        m.Name,
		State:       resource.State(m.State),
		Limits:      m.Limits,
		ProjectID:   projectID,
		ProjectName: m.ProjectName,
		Metadata:    m.Metadata,
	}, nil
}

type planPeriodModel struct {
	grove.BaseModel `grove:"table:accrual_plan_periods"`

	ID         string     `grove:"id,pk"       bson:"_id"`
	ResourceID string     `grove:"resource_id" bson:"resource_id"`
	PlanID     string     `grove:"plan_id"     bson:"plan_id"`
	Start      time.Time  `grove:"start_time"  bson:"start_time"`
	End        *time.Time `grove:"end_time"    bson:"end_time,omitempty"`
	CreatedAt  time.Time  `grove:"created_at"  bson:"created_at"`
	UpdatedAt  time.Time  `grove:"updated_at"  bson:"updated_at"`
}

func toPlanPeriodModel(pp *resource.PlanPeriod) *planPeriodModel {
	return &planPeriodModel{
		ID:         pp.ID.String(),
		ResourceID: pp.ResourceID.String(),
		PlanID:     pp.PlanID.String(),
		Start:      pp.Start,
		End:        pp.End,
		CreatedAt:  pp.CreatedAt,
		UpdatedAt:  pp.UpdatedAt,
	}
}

func fromPlanPeriodModel(m *planPeriodModel) (*resource.PlanPeriod, error) {
	periodID, err := id.ParsePlanPeriodID(m.ID)
	if err != nil {
		return nil, err
	}
	resourceID, err := id.ParseResourceID(m.ResourceID)
	if err != nil {
		return nil, err
	}
	planID, err := id.ParsePlanID(m.PlanID)
	if err != nil {
		return nil, err
	}

	return &resource.PlanPeriod{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:         periodID,
		ResourceID: resourceID,
		PlanID:     planID,
		Start:      m.Start,
		End:        m.End,
	}, nil
}

// ==================== Usage report models ====================

type usageReportModel struct {
	grove.BaseModel `grove:"table:accrual_usage_reports"`

	ID            string    `grove:"id,pk"          bson:"_id"`
	ResourceID    string    `grove:"resource_id"    bson:"resource_id"`
	ComponentType string    `grove:"component_type" bson:"component_type"`
	PlanPeriodID  string    `grove:"plan_period_id" bson:"plan_period_id"`
	Amount        string    `grove:"amount"         bson:"amount"`
	Year          int       `grove:"year"           bson:"year"`
	Month         int       `grove:"month"          bson:"month"`
	RecordedAt    time.Time `grove:"recorded_at"    bson:"recorded_at"`
	CreatedAt     time.Time `grove:"created_at"     bson:"created_at"`
	UpdatedAt     time.Time `grove:"updated_at"     bson:"updated_at"`
}

func toUsageReportModel(r *usage.Report) *usageReportModel {
	return &usageReportModel{
		ID:            r.ID.String(),
		ResourceID:    r.ResourceID.String(),
		ComponentType: r.ComponentType,
		PlanPeriodID:  r.PlanPeriodID.String(),
		Amount:        r.Amount.String(),
		Year:          r.Period.Year,
		Month:         int(r.Period.Month),
		RecordedAt:    r.RecordedAt,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func fromUsageReportModel(m *usageReportModel) (*usage.Report, error) {
	reportID, err := id.ParseUsageReportID(m.ID)
	if err != nil {
		return nil, err
	}
	resourceID, err := id.ParseResourceID(m.ResourceID)
	if err != nil {
		return nil, err
	}
	amount, err := parseDecimal(m.Amount)
	if err != nil {
		return nil, err
	}

	var planPeriodID id.PlanPeriodID
	if m.PlanPeriodID != "" {
		planPeriodID, err = id.ParsePlanPeriodID(m.PlanPeriodID)
		if err != nil {
			return nil, err
		}
	}

	return &usage.Report{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:            reportID,
		ResourceID:    resourceID,
		ComponentType: m.ComponentType,
		PlanPeriodID:  planPeriodID,
		Amount:        amount,
		Period:        period.Period{Year: m.Year, Month: time.Month(m.Month)},
		RecordedAt:    m.RecordedAt,
	}, nil
}

// ==================== Invoice models ====================

type invoiceModel struct {
	grove.BaseModel `grove:"table:accrual_invoices"`

	ID           string            `grove:"id,pk"         bson:"_id"`
	CustomerID   string            `grove:"customer_id"   bson:"customer_id"`
	Year         int               `grove:"year"          bson:"year"`
	Month        int               `grove:"month"         bson:"month"`
	State        string            `grove:"state"         bson:"state"`
	Currency     string            `grove:"currency"      bson:"currency"`
	TaxPercent   string            `grove:"tax_percent"   bson:"tax_percent"`
	TotalPrice   string            `grove:"total_price"   bson:"total_price"`
	TotalCurrent string            `grove:"total_current" bson:"total_current"`
	Number       string            `grove:"number"        bson:"number"`
	InvoiceDate  *time.Time        `grove:"invoice_date"  bson:"invoice_date,omitempty"`
	DueDate      *time.Time        `grove:"due_date"      bson:"due_date,omitempty"`
	PaidAt       *time.Time        `grove:"paid_at"       bson:"paid_at,omitempty"`
	Metadata     map[string]string `grove:"metadata"      bson:"metadata,omitempty"`
	CreatedAt    time.Time         `grove:"created_at"    bson:"created_at"`
	UpdatedAt    time.Time         `grove:"updated_at"    bson:"updated_at"`
}

func toInvoiceModel(inv *invoice.Invoice) *invoiceModel {
	return &invoiceModel{
		ID:           inv.ID.String(),
		CustomerID:   inv.CustomerID.String(),
		Year:         inv.Year,
		Month:        int(inv.Month),
		State:        string(inv.State),
		Currency:     inv.Currency,
		TaxPercent:   inv.TaxPercent.String(),
		TotalPrice:   inv.TotalPrice.Amount.String(),
		TotalCurrent: inv.TotalCurrent.Amount.String(),
		Number:       inv.Number,
		InvoiceDate:  inv.InvoiceDate,
		DueDate:      inv.DueDate,
		PaidAt:       inv.PaidAt,
		Metadata:     inv.Metadata,
		CreatedAt:    inv.CreatedAt,
		UpdatedAt:    inv.UpdatedAt,
	}
}

func fromInvoiceModel(m *invoiceModel) (*invoice.Invoice, error) {
	invID, err := id.ParseInvoiceID(m.ID)
	if err != nil {
		return nil, err
	}
	customerID, err := id.ParseCustomerID(m.CustomerID)
	if err != nil {
		return nil, err
	}
	taxPercent, err := parseDecimal(m.TaxPercent)
	if err != nil {
		return nil, err
	}
	totalPrice, err := parseDecimal(m.TotalPrice)
	if err != nil {
		return nil, err
	}
	totalCurrent, err := parseDecimal(m.TotalCurrent)
	if err != nil {
		return nil, err
	}

	return &invoice.Invoice{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:           invID,
		CustomerID:   customerID,
		Year:         m.Year,
		Month:        time.Month(m.Month),
		State:        invoice.State(m.State),
		Currency:     m.Currency,
		TaxPercent:   taxPercent,
		TotalPrice:   types.Money{Amount: totalPrice, Currency: m.Currency},
		TotalCurrent: types.Money{Amount: totalCurrent, Currency: m.Currency},
		Number:       m.Number,
		InvoiceDate:  m.InvoiceDate,
		DueDate:      m.DueDate,
		PaidAt:       m.PaidAt,
		Metadata:     m.Metadata,
	}, nil
}

type invoiceItemModel struct {
	grove.BaseModel `grove:"table:accrual_invoice_items"`

	ID           string            `grove:"id,pk"         bson:"_id"`
	InvoiceID    string            `grove:"invoice_id"    bson:"invoice_id"`
	ScopeKind    string            `grove:"scope_kind"    bson:"scope_kind"`
	ScopeID      string            `grove:"scope_id"      bson:"scope_id"`
	Name         string            `grove:"name"          bson:"name"`
	Details      itemDetailsModel  `grove:"details"       bson:"details"`
	Unit         string            `grove:"unit"          bson:"unit"`
	UnitPrice    string            `grove:"unit_price"    bson:"unit_price"`
	Currency     string            `grove:"currency"      bson:"currency"`
	Quantity     string            `grove:"quantity"      bson:"quantity"`
	MeasuredUnit string            `grove:"measured_unit" bson:"measured_unit"`
	Start        time.Time         `grove:"start_time"    bson:"start_time"`
	End          *time.Time        `grove:"end_time"      bson:"end_time,omitempty"`
	ProjectID    string            `grove:"project_id"    bson:"project_id"`
	ProjectName  string            `grove:"project_name"  bson:"project_name"`
	CreatedAt    time.Time         `grove:"created_at"    bson:"created_at"`
	UpdatedAt    time.Time         `grove:"updated_at"    bson:"updated_at"`
}

type itemDetailsModel struct {
	OfferingName    string            `bson:"offering_name,omitempty"`
	PlanName        string            `bson:"plan_name,omitempty"`
	ComponentType   string            `bson:"component_type,omitempty"`
	ComponentName   string            `bson:"component_name,omitempty"`
	BillingType     string            `bson:"billing_type,omitempty"`
	PlanComponentID string            `bson:"plan_component_id,omitempty"`
	Extra           map[string]string `bson:"extra,omitempty"`
}

func toInvoiceItemModel(item *invoice.Item) *invoiceItemModel {
	return &invoiceItemModel{
		ID:        item.ID.String(),
		InvoiceID: item.InvoiceID.String(),
		ScopeKind: string(item.Scope.Kind),
		ScopeID:   item.Scope.ID.String(),
		Name:      item.Name,
		Details: itemDetailsModel{
			OfferingName:    item.Details.OfferingName,
			PlanName:        item.Details.PlanName,
			ComponentType:   item.Details.ComponentType,
			ComponentName:   item.Details.ComponentName,
			BillingType:     string(item.Details.BillingType),
			PlanComponentID: item.Details.PlanComponentID.String(),
			Extra:           item.Details.Extra,
		},
		Unit:         string(item.Unit),
		UnitPrice:    item.UnitPrice.Amount.String(),
		Currency:     item.UnitPrice.Currency,
		Quantity:     item.Quantity.String(),
		MeasuredUnit: item.MeasuredUnit,
		Start:        item.Start,
		End:          item.End,
		ProjectID:    item.ProjectID.String(),
		ProjectName:  item.ProjectName,
		CreatedAt:    item.CreatedAt,
		UpdatedAt:    item.UpdatedAt,
	}
}

func fromInvoiceItemModel(m *invoiceItemModel) (*invoice.Item, error) {
	itemID, err := id.ParseInvoiceItemID(m.ID)
	if err != nil {
		return nil, err
	}
	invID, err := id.ParseInvoiceID(m.InvoiceID)
	if err != nil {
		return nil, err
	}
	unitPrice, err := parseDecimal(m.UnitPrice)
	if err != nil {
		return nil, err
	}
	quantity, err := parseDecimal(m.Quantity)
	if err != nil {
		return nil, err
	}

	var scopeID id.AnyID
	if m.ScopeID != "" {
		scopeID, err = id.ParseAny(m.ScopeID)
		if err != nil {
			return nil, err
		}
	}

	var projectID id.ProjectID
	if m.ProjectID != "" {
		projectID, err = id.ParseProjectID(m.ProjectID)
		if err != nil {
			return nil, err
		}
	}

	var planComponentID id.PlanComponentID
	if m.Details.PlanComponentID != "" {
		planComponentID, err = id.ParsePlanComponentID(m.Details.PlanComponentID)
		if err != nil {
			return nil, err
		}
	}

	return &invoice.Item{
		Entity: types.Entity{
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		ID:        itemID,
		InvoiceID: invID,
		Scope:     invoice.Scope{Kind: invoice.ScopeKind(m.ScopeKind), ID: scopeID},
		Name:      m.Name,
		Details: invoice.Details{
			OfferingName:    m.Details.OfferingName,
			PlanName:        m.Details.PlanName,
			ComponentType:   m.Details.ComponentType,
			ComponentName:   m.Details.ComponentName,
			BillingType:     plan.BillingType(m.Details.BillingType),
			PlanComponentID: planComponentID,
			Extra:           m.Details.Extra,
		},
		Unit:         plan.Unit(m.Unit),
		UnitPrice:    types.Money{Amount: unitPrice, Currency: m.Currency},
		Quantity:     quantity,
		MeasuredUnit: m.MeasuredUnit,
		Start:        m.Start,
		End:          m.End,
		ProjectID:    projectID,
		ProjectName:  m.ProjectName,
	}, nil
}
