package domain

import "time"

// Clone returns a deep copy so a transition can be applied without touching the loaded value.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	out := *r
	out.Items = cloneItems(r.Items)
	out.Shipping = r.Shipping
	out.Shipping.EstimatedDelivery = cloneTime(r.Shipping.EstimatedDelivery)
	out.Shipping.ActualDelivery = cloneTime(r.Shipping.ActualDelivery)
	out.Shipping.ShippedAt = cloneTime(r.Shipping.ShippedAt)
	if r.Payment != nil {
		p := *r.Payment
		out.Payment = &p
	}
	if r.Purchase != nil {
		p := *r.Purchase
		out.Purchase = &p
	}
	if r.QualityControl != nil {
		qc := *r.QualityControl
		qc.Photos = cloneStrings(r.QualityControl.Photos)
		qc.Inspections = make([]ItemInspection, len(r.QualityControl.Inspections))
		for i, in := range r.QualityControl.Inspections {
			in.Photos = cloneStrings(in.Photos)
			qc.Inspections[i] = in
		}
		out.QualityControl = &qc
	}
	if r.CustomerReview != nil {
		cr := *r.CustomerReview
		cr.Items = append([]ItemDecision(nil), r.CustomerReview.Items...)
		out.CustomerReview = &cr
	}
	if r.Packing != nil {
		p := *r.Packing
		out.Packing = &p
	}
	if r.Returns != nil {
		out.Returns = make([]ReturnRecord, len(r.Returns))
		for i, rec := range r.Returns {
			if rec.Replacement != nil {
				item := cloneItem(*rec.Replacement)
				rec.Replacement = &item
			}
			rec.EstimatedDelivery = cloneTime(rec.EstimatedDelivery)
			out.Returns[i] = rec
		}
	}
	out.ReviewComments = append([]ReviewComment(nil), r.ReviewComments...)
	if r.History != nil {
		out.History = make([]HistoryEntry, len(r.History))
		for i, h := range r.History {
			h.Previous = cloneMap(h.Previous)
			h.Current = cloneMap(h.Current)
			out.History[i] = h
		}
	}
	return &out
}

func cloneItems(items []Item) []Item {
	if items == nil {
		return nil
	}
	out := make([]Item, len(items))
	for i, item := range items {
		out[i] = cloneItem(item)
	}
	return out
}

func cloneItem(item Item) Item {
	item.Images = cloneStrings(item.Images)
	if item.CustomerDecision != nil {
		d := *item.CustomerDecision
		item.CustomerDecision = &d
	}
	return item
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	return append([]string(nil), in...)
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
