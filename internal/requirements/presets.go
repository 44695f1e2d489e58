package requirements

// ticketingRequirements describes the "jiro" ticketing system
const ticketingRequirements = `
Build a complete ticketing system with these required features:

1. PROJECTS
   - Create, view, update, and archive projects
   - Fields: name, key, description, status (active, archived)
   - List page showing all projects
   - Project detail page showing:
     - Project info
     - List of tickets for that project (with basic filtering by status and priority)

2. TICKETS
   - Create, view, update, and delete tickets
   - Every ticket must belong to a project
   - Fields: project, title, description, status (enum), priority (enum), assigned_to, reporter
   - Status workflow: open, in_progress, blocked, resolved
   - Global ticket list page with filtering by:
     - project
     - status
     - priority
     - assignee
   - Ticket detail page with full ticket information

3. COMMENTS
   - Add comments to a ticket
   - Display comments in chronological order
   - Comment form uses Turbo Frames (no full page reload)

4. ASSIGNMENT
   - Assign a ticket to a user
   - Change assignee from the ticket detail page
   - Display assignee using a Bootstrap badge

5. ACTIVITY LOGS
   - Automatically log changes to:
     - status
     - priority
     - assignee
   - Show activity feed on the ticket detail page

6. USER ROLES
   - Roles: admin, agent, requester
   - Admin: full access to all projects and tickets
   - Agent: manage tickets in all projects
   - Requester: create tickets and view only their own tickets
   - Access control must respect these roles

7. DESIGN
   - Use Bootstrap 5 components only:
     - cards, badges, buttons, tables, forms, alerts, navbars
   - Responsive layout using Bootstrap grid
   - Slim templates only (no ERB)
   - Use Turbo Frames/Streams for dynamic updates
   - Use Stimulus for interactivity (status change, filtering, assignment UI, simple modals)

8. TECH REQUIREMENTS
   - Rails 7+ with Slim templates
   - Stimulus controllers for UI interactions
   - Bootstrap 5 (no custom CSS)
   - Turbo for dynamic updates
   - Use Rails enums for ticket status and priority
`

// ecommerceRequirements describes the online store
const ecommerceRequirements = `
Build a complete e-commerce store with these required features:

1. CATALOG
   - Categories with a name
   - Products with name, description, price, image URL and category
   - Product list page with search by name and filtering by category
   - Product detail page with an "Add to cart" form

2. CART
   - Each visitor has a cart kept in the session
   - Add a product to the cart, change quantities, remove line items
   - Cart page showing line items, per-item subtotals and the cart total
   - Cart badge in the navbar updates without a page reload (Turbo Streams)

3. CHECKOUT
   - Checkout form asks for name, email and shipping address
   - Checkout is refused when the cart is empty
   - Placing an order copies each line item into an order item, keeping the
     price paid at the time of purchase
   - Order total is calculated from its order items
   - Order confirmation page showing the order summary
   - The cart is emptied after a successful order

4. ADMINISTRATION
   - Admin namespace to create, edit and delete products and categories
   - Admin order list with order details

5. VALIDATION
   - Product name and price are required; price must be greater than zero
   - Quantities must be positive integers
   - Order name, email and address are required

6. DESIGN
   - Use Bootstrap 5 components only:
     - cards, badges, buttons, tables, forms, alerts, navbars
   - Product grid uses Bootstrap cards and the responsive grid
   - Slim templates only (no ERB)
   - Use Turbo Frames/Streams for cart updates
   - Use Stimulus for quantity steppers and the search box

7. TECH REQUIREMENTS
   - Rails 7+ with Slim templates
   - Stimulus controllers for UI interactions
   - Bootstrap 5 (no custom CSS)
   - Turbo for dynamic updates
   - Prices stored as decimals with precision 10 and scale 2
`
