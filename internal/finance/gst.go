package finance

type GSTParams struct {
	Amount    float64 `json:"amount"`
	Rate      float64 `json:"rate"`
	Inclusive bool    `json:"inclusive"`
}

type GSTResult struct {
	Amount      float64 `json:"amount"`
	Rate        float64 `json:"rate"`
	Inclusive   bool    `json:"inclusive"`
	NetAmount   float64 `json:"netAmount"`
	GSTAmount   float64 `json:"gstAmount"`
	TotalAmount float64 `json:"totalAmount"`
	CGST        float64 `json:"cgst"`
	SGST        float64 `json:"sgst"`
}

func ParseGST(in Input) (GSTParams, error) {
	var p GSTParams
	var err error
	if p.Amount, err = in.Float("amount", 0); err != nil {
		return p, err
	}
	if p.Rate, err = in.Float("rate", 0); err != nil {
		return p, err
	}
	if p.Inclusive, err = in.Bool("inclusive", false); err != nil {
		return p, err
	}
	return p, p.Validate()
}

func (p GSTParams) Validate() error {
	if err := requireNonNegative("amount", p.Amount); err != nil {
		return err
	}
	return requireNonNegative("rate", p.Rate)
}

// GST splits an amount into net and tax components. In inclusive mode the
// amount already contains the tax.
func GST(p GSTParams) (GSTResult, error) {
	if err := p.Validate(); err != nil {
		return GSTResult{}, err
	}

	var net, gst, total float64
	if p.Inclusive {
		net = p.Amount / (1 + p.Rate/100)
		gst = p.Amount - net
		total = p.Amount
	} else {
		gst = p.Amount * p.Rate / 100
		net = p.Amount
		total = p.Amount + gst
	}
	if err := checkFinite(CalcGST, net, gst, total); err != nil {
		return GSTResult{}, err
	}

	half := Round2(gst / 2)
	return GSTResult{
		Amount:      p.Amount,
		Rate:        p.Rate,
		Inclusive:   p.Inclusive,
		NetAmount:   Round2(net),
		GSTAmount:   Round2(gst),
		TotalAmount: Round2(total),
		CGST:        half,
		SGST:        half,
	}, nil
}
