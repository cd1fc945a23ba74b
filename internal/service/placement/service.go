package placement

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/vkozyrev/orderhub/internal/domain"
	"github.com/vkozyrev/orderhub/internal/messaging/kafka"
	"github.com/vkozyrev/orderhub/internal/metrics"
)

// Service реализует workflow размещения заказа: проверка клиента, снапшот
// каталога, валидация остатков, расчёт позиций и последовательная запись.
// Каждый вызов Place — самостоятельная единица работы без общего состояния;
// коллабораторы долгоживущие и передаются в конструктор.
type Service struct {
	customers domain.CustomerRepository
	catalog   domain.ProductRepository
	orders    domain.OrderRepository
	logger    *log.Entry
	metrics   *metrics.PlacementMetrics
	producer  *kafka.Producer // опциональный Kafka producer для событий заказа
}

// NewService создаёт рабочий экземпляр workflow.
func NewService(
	customers domain.CustomerRepository,
	catalog domain.ProductRepository,
	orders domain.OrderRepository,
	logger *log.Entry,
) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "placement")
	}
	return &Service{
		customers: customers,
		catalog:   catalog,
		orders:    orders,
		logger:    logger,
		metrics:   metrics.NewPlacementMetrics(),
	}
}

// NewServiceWithKafka создаёт workflow с Kafka producer для публикации событий.
func NewServiceWithKafka(
	customers domain.CustomerRepository,
	catalog domain.ProductRepository,
	orders domain.OrderRepository,
	producer *kafka.Producer,
	logger *log.Entry,
) *Service {
	svc := NewService(customers, catalog, orders, logger)
	svc.producer = producer
	return svc
}

// NewServiceWithoutMetrics создаёт workflow без метрик (для тестов).
func NewServiceWithoutMetrics(
	customers domain.CustomerRepository,
	catalog domain.ProductRepository,
	orders domain.OrderRepository,
	logger *log.Entry,
) *Service {
	svc := NewService(customers, catalog, orders, logger)
	svc.metrics = nil
	return svc
}

// Place выполняет размещение заказа строго последовательно:
// клиент → снапшот каталога → валидация → позиции → списание остатков → запись заказа.
// Никакой побочный эффект не происходит, пока не пройдены обе проверки остатков.
func (s *Service) Place(req domain.PlaceOrderRequest) (domain.Order, error) {
	start := time.Now()
	if s.metrics != nil {
		s.metrics.RecordRequestStarted()
	}
	defer func() {
		if s.metrics != nil {
			s.metrics.RecordRequestFinished()
			s.metrics.RecordPlacementDuration(time.Since(start))
		}
	}()

	if err := validateRequest(req); err != nil {
		s.reject(metrics.RejectReasonInvalidRequest)
		return domain.Order{}, err
	}

	customer, err := s.customers.FindByID(req.CustomerID)
	if err != nil {
		if errors.Is(err, domain.ErrCustomerNotFound) {
			s.reject(metrics.RejectReasonCustomerNotFound)
			return domain.Order{}, fmt.Errorf("customer %s: %w", req.CustomerID, domain.ErrCustomerNotFound)
		}
		s.logger.WithError(err).WithField("customer_id", req.CustomerID).Error("customer lookup failed")
		return domain.Order{}, fmt.Errorf("resolve customer: %w", err)
	}

	lineItems, err := s.resolveLineItems(req.Lines)
	if err != nil {
		s.rejectFor(err)
		return domain.Order{}, err
	}

	// Хук наблюдаемости: структурное событие после расчёта позиций.
	s.logger.WithFields(log.Fields{
		"customer_id":  customer.ID,
		"line_items":   len(lineItems),
		"amount_minor": sumAmount(lineItems),
	}).Info("stock computed")

	adjustments := makeAdjustments(lineItems)

	// Сначала условное списание остатков, затем запись заказа: откатить остатки
	// проще, чем удалить уже созданный заказ.
	if err := s.catalog.DecrementStock(adjustments); err != nil {
		if errors.Is(err, domain.ErrOutOfStock) {
			// Остаток ушёл между снапшотом и списанием — поздно обнаруженный OutOfStock.
			s.reject(metrics.RejectReasonOutOfStock)
			return domain.Order{}, fmt.Errorf("conditional decrement: %w", err)
		}
		s.logger.WithError(err).Error("stock decrement failed")
		s.reject(metrics.RejectReasonPersistenceFailure)
		return domain.Order{}, fmt.Errorf("decrement stock: %w: %w", domain.ErrPersistenceFailure, err)
	}
	if s.metrics != nil {
		s.metrics.RecordStockDecrement()
	}

	now := time.Now().UTC()
	order := domain.Order{
		ID:          uuid.NewString(),
		CustomerID:  customer.ID,
		LineItems:   lineItems,
		AmountMinor: sumAmount(lineItems),
		CreatedAt:   now,
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		s.restoreStock(order.ID, adjustments)
		return domain.Order{}, fmt.Errorf("order invariants violated: %w", errors.Join(errs...))
	}

	if err := s.orders.Create(order); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Error("order write failed")
		s.restoreStock(order.ID, adjustments)
		s.reject(metrics.RejectReasonPersistenceFailure)
		return domain.Order{}, fmt.Errorf("create order: %w: %w", domain.ErrPersistenceFailure, err)
	}

	if s.metrics != nil {
		s.metrics.RecordOrderPlaced(len(order.LineItems))
	}
	s.publishPlaced(order, adjustments)

	s.logger.WithFields(log.Fields{
		"order_id":    order.ID,
		"customer_id": order.CustomerID,
		"line_items":  len(order.LineItems),
	}).Info("order placed")

	return order, nil
}

// validateRequest проверяет форму запроса до обращения к коллабораторам.
func validateRequest(req domain.PlaceOrderRequest) error {
	if req.CustomerID == "" {
		return domain.ErrCustomerIDRequired
	}
	if len(req.Lines) == 0 {
		return domain.ErrLinesRequired
	}
	for _, line := range req.Lines {
		if line.Quantity <= 0 {
			return fmt.Errorf("product %s: %w", line.ProductID, domain.ErrLineQtyInvalid)
		}
	}
	return nil
}

// resolveLineItems снимает снапшот каталога и строит позиции заказа.
// Валидация выполняется целиком до любого побочного эффекта.
func (s *Service) resolveLineItems(lines []domain.RequestedLine) ([]domain.OrderLineItem, error) {
	// Дедупликация идентификаторов с сохранением порядка первого вхождения.
	// При дублях количество берётся из первого вхождения.
	distinct := make([]string, 0, len(lines))
	firstQty := make(map[string]int64, len(lines))
	for _, line := range lines {
		if _, seen := firstQty[line.ProductID]; seen {
			continue
		}
		firstQty[line.ProductID] = line.Quantity
		distinct = append(distinct, line.ProductID)
	}

	snapshot, err := s.catalog.FindAllByID(distinct)
	if err != nil {
		s.logger.WithError(err).Error("catalog lookup failed")
		return nil, fmt.Errorf("resolve products: %w", err)
	}

	byID := make(map[string]domain.Product, len(snapshot))
	for _, product := range snapshot {
		byID[product.ID] = product
	}

	// Проверка остатка: каждая запрошенная строка сверяется со снапшотом
	// независимо от остальных строк пачки.
	for _, line := range lines {
		product, ok := byID[line.ProductID]
		if !ok {
			continue
		}
		if product.Quantity < line.Quantity {
			return nil, fmt.Errorf("product %s: requested %d, available %d: %w",
				line.ProductID, line.Quantity, product.Quantity, domain.ErrOutOfStock)
		}
	}

	// Проверка полноты — сравнение количеств, НЕ поэлементная проверка
	// существования. Семантика сохранена намеренно.
	if len(snapshot) < len(distinct) {
		return nil, fmt.Errorf("requested %d distinct products, catalog resolved %d: %w",
			len(distinct), len(snapshot), domain.ErrInvalidQuantities)
	}

	now := time.Now().UTC()
	items := make([]domain.OrderLineItem, 0, len(distinct))
	for _, id := range distinct {
		product, ok := byID[id]
		if !ok {
			continue
		}
		items = append(items, domain.OrderLineItem{
			ID:         uuid.NewString(),
			ProductID:  product.ID,
			PriceMinor: product.PriceMinor,
			Quantity:   firstQty[id],
			CreatedAt:  now,
		})
	}

	return items, nil
}

// restoreStock компенсирует уже применённое списание после неудачной записи заказа.
// Неудачная компенсация логируется и не подменяет исходную ошибку.
func (s *Service) restoreStock(orderID string, adjustments []domain.StockAdjustment) {
	if err := s.catalog.RestoreStock(adjustments); err != nil {
		s.logger.WithError(err).WithField("order_id", orderID).Error("stock compensation failed")
		return
	}
	if s.metrics != nil {
		s.metrics.RecordStockCompensation()
	}
}

// publishPlaced публикует события заказа в Kafka (если producer настроен).
// Ошибка публикации логируется и не влияет на результат запроса.
func (s *Service) publishPlaced(order domain.Order, adjustments []domain.StockAdjustment) {
	if s.producer == nil {
		return
	}

	items := make([]kafka.LineItemEvent, 0, len(order.LineItems))
	for _, item := range order.LineItems {
		items = append(items, kafka.LineItemEvent{
			ProductID:  item.ProductID,
			PriceMinor: item.PriceMinor,
			Quantity:   item.Quantity,
		})
	}

	if err := s.producer.PublishOrderPlaced(kafka.NewOrderPlacedEvent(order.ID, order.CustomerID, order.AmountMinor, items)); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to publish order.placed event")
	} else if s.metrics != nil {
		s.metrics.RecordEventPublished()
	}

	adjusted := make(map[string]int64, len(adjustments))
	for _, adj := range adjustments {
		adjusted[adj.ProductID] = adj.Quantity
	}
	if err := s.producer.PublishStockAdjusted(kafka.NewStockAdjustedEvent(order.ID, adjusted)); err != nil {
		s.logger.WithError(err).WithField("order_id", order.ID).Warn("failed to publish stock.adjusted event")
	} else if s.metrics != nil {
		s.metrics.RecordEventPublished()
	}
}

func (s *Service) reject(reason string) {
	if s.metrics != nil {
		s.metrics.RecordOrderRejected(reason)
	}
}

func (s *Service) rejectFor(err error) {
	switch {
	case errors.Is(err, domain.ErrOutOfStock):
		s.reject(metrics.RejectReasonOutOfStock)
	case errors.Is(err, domain.ErrInvalidQuantities):
		s.reject(metrics.RejectReasonInvalidQuantities)
	default:
		s.reject(metrics.RejectReasonPersistenceFailure)
	}
}

func makeAdjustments(items []domain.OrderLineItem) []domain.StockAdjustment {
	adjustments := make([]domain.StockAdjustment, 0, len(items))
	for _, item := range items {
		adjustments = append(adjustments, domain.StockAdjustment{
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		})
	}
	return adjustments
}

func sumAmount(items []domain.OrderLineItem) int64 {
	var sum int64
	for _, item := range items {
		sum += item.Quantity * item.PriceMinor
	}
	return sum
}
